package source

import (
	"bytes"
	"context"
	"crypto/sha1"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// packument is the subset of the registry document for one package.
type packument struct {
	Name     string                    `json:"name"`
	DistTags map[string]string         `json:"dist-tags"`
	Versions map[string]packageVersion `json:"versions"`
}

type packageVersion struct {
	Version string `json:"version"`
	Dist    struct {
		Tarball   string `json:"tarball"`
		Integrity string `json:"integrity"`
		Shasum    string `json:"shasum"`
	} `json:"dist"`
}

func (r *Resolver) resolveRegistry(ctx context.Context, ref Ref) (*Info, error) {
	doc, err := r.packument(ctx, ref.Name)
	if err != nil {
		return nil, err
	}
	v, err := pickVersion(doc, ref.Spec)
	if err != nil {
		return nil, err
	}
	return &Info{Name: doc.Name, Version: v.Version, Location: v.Dist.Tarball}, nil
}

func (r *Resolver) fetchRegistry(ctx context.Context, ref Ref, dest string) error {
	doc, err := r.packument(ctx, ref.Name)
	if err != nil {
		return err
	}
	v, err := pickVersion(doc, ref.Spec)
	if err != nil {
		return err
	}
	if v.Dist.Tarball == "" {
		return fmt.Errorf("%s@%s has no tarball", doc.Name, v.Version)
	}

	body, err := r.get(ctx, v.Dist.Tarball)
	if err != nil {
		return err
	}
	if err := verifyIntegrity(body, v.Dist.Integrity, v.Dist.Shasum); err != nil {
		return fmt.Errorf("%s@%s: %w", doc.Name, v.Version, err)
	}
	return extractTarGz(bytes.NewReader(body), dest)
}

// packument fetches and caches the registry document for name.
func (r *Resolver) packument(ctx context.Context, name string) (*packument, error) {
	if doc, ok := r.packuments[name]; ok {
		return doc, nil
	}
	// Scoped names keep the "@" but escape the slash.
	escaped := strings.Replace(url.PathEscape(name), "%40", "@", 1)
	body, err := r.get(ctx, r.Registry+"/"+escaped)
	if err != nil {
		return nil, err
	}
	var doc packument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode registry document for %s: %w", name, err)
	}
	if doc.Name == "" {
		doc.Name = name
	}
	if r.packuments == nil {
		r.packuments = make(map[string]*packument)
	}
	r.packuments[name] = &doc
	return &doc, nil
}

func (r *Resolver) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "kb-plugins")

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("not found in registry: %s", u)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", u, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// pickVersion selects a published version for spec: empty means the latest
// dist-tag, a dist-tag name selects that tag, anything else is an exact
// version or a semver constraint matched against every published version.
func pickVersion(doc *packument, spec string) (packageVersion, error) {
	if spec == "" {
		spec = "latest"
	}
	if tagged, ok := doc.DistTags[spec]; ok {
		if v, ok := doc.Versions[tagged]; ok {
			return withVersion(v, tagged), nil
		}
	}
	if v, ok := doc.Versions[spec]; ok {
		return withVersion(v, spec), nil
	}

	constraint, err := semver.NewConstraint(spec)
	if err != nil {
		return packageVersion{}, fmt.Errorf("%s has no version or tag %q", doc.Name, spec)
	}
	var best *semver.Version
	var bestKey string
	for key := range doc.Versions {
		sv, err := semver.NewVersion(key)
		if err != nil || !constraint.Check(sv) {
			continue
		}
		if best == nil || sv.GreaterThan(best) {
			best, bestKey = sv, key
		}
	}
	if best == nil {
		return packageVersion{}, fmt.Errorf("no version of %s satisfies %q", doc.Name, spec)
	}
	return withVersion(doc.Versions[bestKey], bestKey), nil
}

func withVersion(v packageVersion, key string) packageVersion {
	if v.Version == "" {
		v.Version = key
	}
	return v
}

// verifyIntegrity checks body against an SRI sha512 string, falling back to
// the legacy hex sha1 shasum. With neither present the body is accepted.
func verifyIntegrity(body []byte, integrity, shasum string) error {
	for _, entry := range strings.Fields(integrity) {
		algo, digest, ok := strings.Cut(entry, "-")
		if !ok || algo != "sha512" {
			continue
		}
		want, err := base64.StdEncoding.DecodeString(digest)
		if err != nil {
			return fmt.Errorf("malformed integrity %q", entry)
		}
		if !bytes.Equal(sum(sha512.New(), body), want) {
			return fmt.Errorf("integrity check failed (sha512)")
		}
		return nil
	}
	if shasum != "" {
		if hex.EncodeToString(sum(sha1.New(), body)) != strings.ToLower(shasum) {
			return fmt.Errorf("integrity check failed (sha1)")
		}
	}
	return nil
}

func sum(h hash.Hash, body []byte) []byte {
	h.Write(body)
	return h.Sum(nil)
}
