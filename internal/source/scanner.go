package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Scan returns the export files at path. A file is returned as is; a
// directory is walked for *.jsonl files. A missing path yields nothing.
func Scan(path string) ([]DiscoveredFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return []DiscoveredFile{discovered(path)}, nil
	}

	var files []DiscoveredFile
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // skip unreadable entries
		}
		if d.IsDir() {
			if p != path && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(p) != ".jsonl" {
			return nil
		}
		files = append(files, discovered(p))
		return nil
	})

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, err
}

func discovered(path string) DiscoveredFile {
	base := filepath.Base(path)
	return DiscoveredFile{
		Path: path,
		Name: strings.TrimSuffix(base, filepath.Ext(base)),
	}
}
