package domain

import (
	"path/filepath"
	"strings"
)

// SupportedExtensions is the input allow-list, compared case-insensitively.
var SupportedExtensions = []string{".png", ".jpg", ".jpeg"}

// Job is one input file and where its bordered copy goes.
type Job struct {
	Name       string
	InputPath  string
	OutputPath string
}

func IsSupportedImage(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range SupportedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// OutputName inserts suffix before the extension. With forceJPG the
// extension is replaced by ".jpg" to match the encoded content.
func OutputName(name, suffix string, forceJPG bool) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if forceJPG {
		ext = ".jpg"
	}
	return stem + suffix + ext
}
