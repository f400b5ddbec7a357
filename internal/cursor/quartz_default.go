//go:build !darwin

package cursor

const defaultBackend = BackendRobotgo

func newQuartz() (Backend, error) {
	return nil, ErrUnsupported
}
