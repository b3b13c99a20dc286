package metadata

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/user"
	"strconv"
	"sync"
	"syscall"

	"github.com/ZanzyTHEbar/permsnap/psnap/snapshot"
)

// Extractor resolves filesystem status into normalized snapshot entries.
// Owner and group name lookups are cached per numeric id for the lifetime of
// the extractor, since install trees repeat a handful of owners thousands of
// times.
type Extractor struct {
	users  sync.Map // uint32 uid -> username
	groups sync.Map // uint32 gid -> group name
}

// NewExtractor creates a new Extractor instance
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the status of path and resolves it into a FileSystemEntry.
//
// A path that no longer exists at inspection time is a normal outcome: the
// returned entry has Unknown kind and every descriptive field set to the
// sentinel. A numeric owner or group id that cannot be resolved to a name is
// treated the same way, so a record is never partially populated. Any other
// status failure (typically permission denied) is returned as an error; the
// caller must drop the path from further processing and account for it.
func (e *Extractor) Extract(path string) (snapshot.FileSystemEntry, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("path vanished before inspection", "path", path)
			return snapshot.NewSentinelEntry(path), nil
		}
		return snapshot.FileSystemEntry{}, err
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		// No raw status available on this platform; treat as a failed lookup.
		return snapshot.NewSentinelEntry(path), nil
	}
	mode := uint32(stat.Mode)

	owner, ownerErr := e.lookupUser(uint32(stat.Uid))
	group, groupErr := e.lookupGroup(uint32(stat.Gid))
	if ownerErr != nil || groupErr != nil {
		slog.Debug("owner or group id not resolvable",
			"path", path,
			"uid", stat.Uid,
			"gid", stat.Gid)
		return snapshot.NewSentinelEntry(path), nil
	}

	kind := snapshot.File
	if info.IsDir() {
		kind = snapshot.Directory
	}

	return snapshot.FileSystemEntry{
		Path:         path,
		Kind:         kind,
		Owner:        owner,
		Group:        group,
		ModeOctal:    OctalModeString(mode),
		ModeSymbolic: FileModeString(mode),
	}, nil
}

func (e *Extractor) lookupUser(uid uint32) (string, error) {
	if name, ok := e.users.Load(uid); ok {
		return name.(string), nil
	}

	u, err := user.LookupId(strconv.FormatUint(uint64(uid), 10))
	if err != nil {
		return "", err
	}

	e.users.Store(uid, u.Username)
	return u.Username, nil
}

func (e *Extractor) lookupGroup(gid uint32) (string, error) {
	if name, ok := e.groups.Load(gid); ok {
		return name.(string), nil
	}

	g, err := user.LookupGroupId(strconv.FormatUint(uint64(gid), 10))
	if err != nil {
		return "", err
	}

	e.groups.Store(gid, g.Name)
	return g.Name, nil
}
