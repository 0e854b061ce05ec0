package sigtest

import (
	"fmt"
	"io/fs"
	"path"
	"slices"
	"time"

	"github.com/kmsign/kmsign"
)

// Config carries the fixed signing inputs a suite run applies to every
// parsed request, plus the case names to skip.
type Config struct {
	AccessKeyID string
	SecretKey   string
	Region      string
	Service     string
	Date        time.Time
	Skip        []string
}

// DefaultConfig returns the constants the official AWS signature test
// suite is built around. The post-sts-token case is skipped: session-token
// signing is not supported.
func DefaultConfig() Config {
	return Config{
		AccessKeyID: "AKIDEXAMPLE",
		SecretKey:   "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY",
		Region:      "us-east-1",
		Service:     "service",
		Date:        time.Date(2015, 8, 30, 12, 36, 0, 0, time.UTC),
		Skip:        []string{"post-sts-token"},
	}
}

// Apply copies the configured signing inputs onto a parsed request.
func (c Config) Apply(req *kmsign.Request) error {
	req.SetAccessKeyID(c.AccessKeyID)
	req.SetSecretKey(c.SecretKey)
	req.SetRegion(c.Region)
	req.SetService(c.Service)
	return req.SetDate(c.Date)
}

func (c Config) skipped(name string) bool {
	return slices.Contains(c.Skip, name)
}

// Case is one suite directory: the request input plus whichever expected
// artifacts ship alongside it. A nil expectation is simply not checked.
type Case struct {
	Name  string
	Req   []byte
	Creq  []byte
	Sts   []byte
	Authz []byte
	Sreq  []byte
}

// LoadCase reads a case from a directory whose files share the directory's
// base name: <name>.req plus optional expectation files.
func LoadCase(fsys fs.FS, dir string) (Case, error) {
	name := path.Base(dir)

	req, err := fs.ReadFile(fsys, path.Join(dir, name+".req"))
	if err != nil {
		return Case{}, fmt.Errorf("load case %s: %w", name, err)
	}

	return Case{
		Name:  name,
		Req:   req,
		Creq:  readOptional(fsys, path.Join(dir, name+".creq")),
		Sts:   readOptional(fsys, path.Join(dir, name+".sts")),
		Authz: readOptional(fsys, path.Join(dir, name+".authz")),
		Sreq:  readOptional(fsys, path.Join(dir, name+".sreq")),
	}, nil
}

func readOptional(fsys fs.FS, file string) []byte {
	data, err := fs.ReadFile(fsys, file)
	if err != nil {
		return nil
	}
	return data
}

// ArtifactResult compares one produced artifact against its expectation.
type ArtifactResult struct {
	Artifact string // "creq", "sts", "authz" or "sreq"
	Got      string
	Want     string
	Mismatch int // byte offset of the first difference, -1 when equal
}

// OK reports whether the artifact matched its expectation.
func (a ArtifactResult) OK() bool { return a.Mismatch < 0 }

// Result is the outcome of one case.
type Result struct {
	Name      string
	Skipped   bool
	Err       error
	Artifacts []ArtifactResult
}

// OK reports whether the case ran cleanly and every checked artifact
// matched. A skipped case is OK.
func (r Result) OK() bool {
	if r.Err != nil {
		return false
	}
	for _, a := range r.Artifacts {
		if !a.OK() {
			return false
		}
	}
	return true
}

// Run parses the case's request, applies the config, and checks every
// expectation the case carries.
func Run(c Case, cfg Config) Result {
	res := Result{Name: c.Name}
	if cfg.skipped(c.Name) {
		res.Skipped = true
		return res
	}

	req, err := ParseRequest(c.Req)
	if err != nil {
		res.Err = fmt.Errorf("parse %s.req: %w", c.Name, err)
		return res
	}
	if err := cfg.Apply(req); err != nil {
		res.Err = fmt.Errorf("configure %s: %w", c.Name, err)
		return res
	}

	checks := []struct {
		artifact string
		want     []byte
		produce  func() (string, error)
	}{
		{"creq", c.Creq, req.CanonicalRequest},
		{"sts", c.Sts, req.StringToSign},
		{"authz", c.Authz, req.Authorization},
		{"sreq", c.Sreq, req.SignedRequest},
	}
	for _, check := range checks {
		if check.want == nil {
			continue
		}
		got, err := check.produce()
		if err != nil {
			res.Err = fmt.Errorf("produce %s for %s: %w", check.artifact, c.Name, err)
			return res
		}
		res.Artifacts = append(res.Artifacts, ArtifactResult{
			Artifact: check.artifact,
			Got:      got,
			Want:     string(check.want),
			Mismatch: firstMismatch(got, string(check.want)),
		})
	}
	return res
}

// RunSuite walks a suite tree and runs every directory containing a
// <name>.req file, in walk order. A non-empty filter runs only the case
// with that name.
func RunSuite(fsys fs.FS, cfg Config, filter string) ([]Result, error) {
	var results []Result
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() {
			return nil
		}

		name := path.Base(p)
		if _, err := fs.Stat(fsys, path.Join(p, name+".req")); err != nil {
			return nil
		}
		if filter != "" && name != filter {
			return nil
		}

		c, err := LoadCase(fsys, p)
		if err != nil {
			return err
		}
		results = append(results, Run(c, cfg))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func firstMismatch(got, want string) int {
	n := min(len(got), len(want))
	for i := 0; i < n; i++ {
		if got[i] != want[i] {
			return i
		}
	}
	if len(got) != len(want) {
		return n
	}
	return -1
}
