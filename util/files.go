package util

import (
	"crypto/md5"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

func MD5File(fs afero.Fs, fileName string) (string, error) {
	file, err := fs.Open(fileName)
	if err != nil {
		return "", err
	}
	defer file.Close()

	md5 := md5.New()
	if _, err := io.Copy(md5, file); err != nil {
		return "", errors.Wrapf(err, "hashing %s", fileName)
	}

	return fmt.Sprintf("%x", md5.Sum(nil)), nil
}

// ListFiles returns the sorted paths of regular files in dir whose base
// name contains substr.
func ListFiles(fs afero.Fs, dir, substr string) ([]string, error) {
	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, errors.Wrapf(err, "listing %s", dir)
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() || !strings.Contains(info.Name(), substr) {
			continue
		}
		names = append(names, filepath.Join(dir, info.Name()))
	}
	sort.Strings(names)
	return names, nil
}
