package remote

import (
	"errors"
	"io/fs"
	"os"

	"github.com/pkg/sftp"
)

// isSFTPNotExist reports whether err represents a missing path, across the
// status-code and os.ErrNotExist shapes sftp.Client.Stat can return.
func isSFTPNotExist(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, fs.ErrNotExist) {
		return true
	}
	var sftpErr *sftp.StatusError
	if errors.As(err, &sftpErr) {
		return sftpErr.Code == uint32(sftp.ErrSSHFxNoSuchFile)
	}
	return false
}

func fileMode(mode uint32) fs.FileMode {
	return fs.FileMode(mode)
}
