package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"golang.org/x/mod/modfile"
)

// DetectModule returns the Go module path declared by go.mod at rootURL, empty when there is none
func DetectModule(ctx context.Context, fs afs.Service, rootURL string) (string, error) {
	URL := url.Join(rootURL, "go.mod")
	exists, err := fs.Exists(ctx, URL)
	if err != nil || !exists {
		return "", err
	}
	content, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return "", fmt.Errorf("failed to download %v: %w", URL, err)
	}
	mod, err := modfile.Parse(URL, content, nil)
	if err != nil {
		return "", fmt.Errorf("failed to parse %v: %w", URL, err)
	}
	if mod.Module == nil {
		return "", nil
	}
	return mod.Module.Mod.Path, nil
}

// Discover walks rootURL and returns every file whose name matches an include pattern;
// locations are relative to rootURL and prefixed with the Go module path when go.mod is present
func Discover(ctx context.Context, fs afs.Service, rootURL string, include []string) ([]Input, error) {
	module, err := DetectModule(ctx, fs, rootURL)
	if err != nil {
		return nil, err
	}
	var inputs []Input
	var visitor storage.OnVisit = func(ctx context.Context, baseURL, parent string, info os.FileInfo, reader io.Reader) (bool, error) {
		if info.IsDir() {
			return !strings.HasPrefix(info.Name(), "."), nil
		}
		if !matches(include, info.Name()) {
			return true, nil
		}
		relative := path.Join(parent, info.Name())
		var content []byte
		var readErr error
		if reader != nil {
			if content, readErr = io.ReadAll(reader); readErr != nil {
				return false, fmt.Errorf("failed to read %v: %w", relative, readErr)
			}
		} else if content, readErr = fs.DownloadWithURL(ctx, url.Join(baseURL, relative)); readErr != nil {
			return false, readErr
		}
		location := relative
		if module != "" {
			location = path.Join(module, relative)
		}
		inputs = append(inputs, Input{Location: location, Content: content})
		return true, nil
	}
	if err = fs.Walk(ctx, rootURL, visitor); err != nil {
		return nil, fmt.Errorf("failed to walk %v: %w", rootURL, err)
	}
	sort.Slice(inputs, func(i, j int) bool { return inputs[i].Location < inputs[j].Location })
	return inputs, nil
}

func matches(patterns []string, name string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, pattern := range patterns {
		if ok, _ := path.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
