package domain

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// TimestampLayout is the second-resolution timestamp embedded in artifact names.
const TimestampLayout = "2006_01_02_150405"

const DefaultExtension = "sql"

// Artifact is a single database dump identified by its database name and
// creation time. Its filename is the key used both locally and remotely.
type Artifact struct {
	DatabaseName string
	CreatedAt    time.Time
	Extension    string
}

func NewArtifact(databaseName string, createdAt time.Time, ext string) Artifact {
	if ext == "" {
		ext = DefaultExtension
	}
	return Artifact{
		DatabaseName: databaseName,
		CreatedAt:    createdAt.Truncate(time.Second),
		Extension:    strings.TrimPrefix(ext, "."),
	}
}

// Filename renders {database_name}_{YYYY_MM_DD_HHMMSS}.{ext}.
func (a Artifact) Filename() string {
	return fmt.Sprintf("%s_%s.%s", a.DatabaseName, a.CreatedAt.Format(TimestampLayout), a.Extension)
}

// ParseArtifact recovers the database name and timestamp from a filename
// produced by Filename. Names that do not follow the convention are rejected.
func ParseArtifact(filename string) (Artifact, error) {
	name := path.Base(filename)

	ext := strings.TrimPrefix(path.Ext(name), ".")
	base := strings.TrimSuffix(name, path.Ext(name))

	// database names may themselves contain underscores; the timestamp is
	// always the last four underscore-separated fields.
	parts := strings.Split(base, "_")
	if len(parts) < 5 || ext == "" {
		return Artifact{}, fmt.Errorf("invalid artifact name %q: no timestamp found", filename)
	}

	stamp := strings.Join(parts[len(parts)-4:], "_")
	createdAt, err := time.ParseInLocation(TimestampLayout, stamp, time.Local)
	if err != nil {
		return Artifact{}, fmt.Errorf("invalid artifact name %q: %w", filename, err)
	}

	return Artifact{
		DatabaseName: strings.Join(parts[:len(parts)-4], "_"),
		CreatedAt:    createdAt,
		Extension:    ext,
	}, nil
}
