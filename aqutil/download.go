/*
Copyright © 2014 the aquifer-thickness authors.
This file is part of aquifer-thickness.

aquifer-thickness is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

aquifer-thickness is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with aquifer-thickness.  If not, see <http://www.gnu.org/licenses/>.
*/

package aqutil

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// maybeDownload checks if the input is an existing file locally.
// If not, and it is an http(s) URL, it downloads the file to a
// temporary directory and returns the path to the downloaded file.
// For shapefiles, it downloads all associated files and
// returns the path to the file with the ".shp" extension.
func maybeDownload(p string) (string, error) {
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		return p, nil
	}
	if !strings.HasPrefix(p, "http://") && !strings.HasPrefix(p, "https://") {
		return p, nil
	}
	return downloadHTTP(p)
}

// downloadHTTP downloads a file from the specified URL and returns
// the path to the downloaded file.
func downloadHTTP(p string) (string, error) {
	u, err := url.Parse(p)
	if err != nil {
		return p, fmt.Errorf("aquifer: parsing download URL: %v", err)
	}
	dir, err := os.MkdirTemp("", "aquifer")
	if err != nil {
		return p, fmt.Errorf("aquifer: failed creating temporary download directory: %v", err)
	}
	fnames := expandShp(u.Path)
	for i, fname := range fnames {
		fu := *u
		fu.Path = fname
		// The projection file of a shapefile is optional.
		optional := i > 0 && filepath.Ext(fname) == ".prj"
		if err := downloadFile(fu.String(), filepath.Join(dir, path.Base(fname)), optional); err != nil {
			return p, err
		}
	}
	local := filepath.Join(dir, path.Base(fnames[0]))
	logrus.WithFields(logrus.Fields{"url": p, "file": local}).Info("downloaded input file")
	return local, nil
}

func downloadFile(src, dst string, optional bool) error {
	resp, err := http.Get(src)
	if err != nil {
		return fmt.Errorf("aquifer: downloading %s: %v", src, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		if optional {
			return nil
		}
		return fmt.Errorf("aquifer: downloading %s: %s", src, resp.Status)
	}
	w, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("aquifer: failed creating file for download: %v", err)
	}
	if _, err = io.Copy(w, resp.Body); err != nil {
		w.Close()
		return fmt.Errorf("aquifer: downloading %s: %v", src, err)
	}
	return w.Close()
}

// expandShp returns the given file name plus the names of the files
// that accompany it if it is a shapefile.
func expandShp(filename string) []string {
	o := []string{filename}
	if filepath.Ext(filename) != ".shp" {
		return o
	}
	for _, newExt := range []string{".dbf", ".shx", ".prj"} {
		o = append(o, filename[0:len(filename)-4]+newExt)
	}
	return o
}

// inputFiles resolves input paths to local files. Each remote input is
// downloaded once; Remove deletes the downloads.
type inputFiles struct {
	local map[string]string
	paths []string // local paths in the order they were first resolved
	dirs  []string
}

func newInputFiles() *inputFiles {
	return &inputFiles{local: make(map[string]string)}
}

// resolve returns the local path of p, downloading it if necessary.
// Empty paths resolve to themselves.
func (in *inputFiles) resolve(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if l, ok := in.local[p]; ok {
		return l, nil
	}
	l, err := maybeDownload(p)
	if err != nil {
		return "", err
	}
	if l != p {
		in.dirs = append(in.dirs, filepath.Dir(l))
	}
	in.local[p] = l
	in.paths = append(in.paths, l)
	return l, nil
}

// Paths returns the local paths of all resolved inputs.
func (in *inputFiles) Paths() []string { return in.paths }

// Remove deletes the downloaded files.
func (in *inputFiles) Remove() {
	for _, d := range in.dirs {
		os.RemoveAll(d)
	}
	in.dirs = nil
}
