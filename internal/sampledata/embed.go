// Package sampledata embeds the starter files written by siteforge init.
// The embedded filesystem is rooted at "sample/" and contains a project
// config (siteforge.yml) and a site plan (site.yml).
package sampledata

import (
	"embed"
	"path"
)

// FS contains the embedded starter files.
//
//go:embed sample
var FS embed.FS

// Starters lists the files init writes, in write order.
var Starters = []string{"siteforge.yml", "site.yml"}

// Starter returns the embedded starter file with the given name.
func Starter(name string) ([]byte, error) {
	return FS.ReadFile(path.Join("sample", name))
}
