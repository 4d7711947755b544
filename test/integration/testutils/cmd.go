package testutils

import (
	"bytes"
	"context"
	"os"
	"os/exec"
)

// RunBinary executes a binary with pre-split arguments. The env is added on top of the
// current process environment, on duplicated keys the last one wins.
func RunBinary(ctx context.Context, env []string, binary string, args []string) (stdout, stderr []byte, err error) {
	var outData, errData bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = &outData
	cmd.Stderr = &errData
	cmd.Env = append(append([]string{}, os.Environ()...), env...)

	err = cmd.Run()

	return outData.Bytes(), errData.Bytes(), err
}
