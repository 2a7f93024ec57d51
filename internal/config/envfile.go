package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultEnvDir is the directory, searched upward from the working
// directory, that holds the deployment's private .env file.
const DefaultEnvDir = "PRIVATE_BAG.ENV"

// EnvFileOptions controls .env discovery.
type EnvFileOptions struct {
	// Path is used as-is when set (ENV_FILE).
	Path string
	// Dir is the directory name searched for upward; defaults to DefaultEnvDir.
	Dir string
	// Start is where the upward search begins; defaults to the working directory.
	Start string
}

// FindEnvFile walks from start towards the filesystem root and returns the
// first <dir>/.env it finds, then falls back to <start>/.env. It returns ""
// when neither exists.
func FindEnvFile(start, dir string) string {
	if dir == "" {
		dir = DefaultEnvDir
	}
	abs, err := filepath.Abs(start)
	if err != nil {
		return ""
	}
	for cur := abs; ; {
		if p := filepath.Join(cur, dir, ".env"); isFile(p) {
			return p
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}
	if p := filepath.Join(abs, ".env"); isFile(p) {
		return p
	}
	return ""
}

// Environ merges the process environment (KEY=VALUE list) with the .env file
// selected by opts. Process variables win over the file. It returns the
// merged map and the path of the file that was read, if any.
func Environ(processEnv []string, opts EnvFileOptions) (map[string]string, string, error) {
	out := make(map[string]string, len(processEnv))
	for _, kv := range processEnv {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			out[k] = v
		}
	}

	path := opts.Path
	if path == "" {
		path = out["ENV_FILE"]
	}
	if path == "" {
		start := opts.Start
		if start == "" {
			wd, err := os.Getwd()
			if err != nil {
				return out, "", nil
			}
			start = wd
		}
		path = FindEnvFile(start, opts.Dir)
	}
	if path == "" {
		return out, "", nil
	}

	fileEnv, err := godotenv.Read(path)
	if err != nil {
		return out, "", fmt.Errorf("env file %s: %w", path, err)
	}
	for k, v := range fileEnv {
		if _, set := out[k]; !set {
			out[k] = v
		}
	}
	return out, path, nil
}

func isFile(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}
