//go:build !govips || !cgo

package pipeline

// Backend names the transformer compiled into this binary.
const Backend = "stdlib"

func Startup() error {
	return nil
}

func Shutdown() {}

func newTransformer() (Transformer, error) {
	return stdlibTransformer{}, nil
}
