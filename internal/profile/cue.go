package profile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/stlc/internal/compiler"
)

// loadCUE builds the CUE package in dir (or only files, when given) and
// compiles every field of its `stream` struct.
func loadCUE(dir string, files []string, mode LoadMode) (*Profile, []error) {
	var errs []error

	cueFiles := files
	if len(cueFiles) == 0 {
		found, err := FindCUEFiles(dir)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
		}
		if len(found) == 0 {
			return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
		}
		cueFiles = found
	}

	args := files
	if len(args) == 0 {
		args = []string{"."}
	}

	ctx := cuecontext.New()
	instances := load.Instances(args, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	path := dir
	if len(files) == 1 {
		path = filepath.Join(dir, files[0])
	}
	result := &Profile{
		Path:      path,
		Format:    FormatCUE,
		FileCount: len(cueFiles),
	}

	streamsVal := value.LookupPath(cue.ParsePath("stream"))
	if !streamsVal.Exists() {
		return result, []error{&LoadError{Code: ErrCodeNoStreams, Message: "no streams declared in profile"}}
	}

	streams, compileErrs := compiler.CompileStreams(streamsVal, mode == LoadModeFailFast)
	for _, err := range compileErrs {
		var se *compiler.StreamError
		if errors.As(err, &se) {
			errs = append(errs, convertCompileError(se.Err, "stream."+se.Label))
			continue
		}
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating streams: %v", err)})
	}
	result.Streams = streams

	if len(result.Streams) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeNoStreams, Message: "no streams declared in profile"})
	}
	return result, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
