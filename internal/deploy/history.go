package deploy

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nuoa-io/nuoactl/internal/storage/dirstore"
)

// Record is a persisted deployment outcome.
type Record struct {
	ID        string            `json:"id"`
	Time      time.Time         `json:"time"`
	Stage     string            `json:"stage"`
	Artifact  string            `json:"artifact"`
	SHA256    string            `json:"sha256"`
	Bucket    string            `json:"bucket"`
	Key       string            `json:"key"`
	Uploaded  bool              `json:"uploaded"`
	Functions []string          `json:"functions,omitempty"`
	Failures  map[string]string `json:"failures,omitempty"`
	DryRun    bool              `json:"dry_run,omitempty"`
}

// HistoryStore persists deployment records as dirstore entities.
type HistoryStore struct {
	ds *dirstore.DirStore
}

// NewHistoryStore creates a HistoryStore rooted at baseDir.
func NewHistoryStore(baseDir string) *HistoryStore {
	return &HistoryStore{ds: dirstore.New(baseDir, "deployment")}
}

// Append stores a record for a finished run, assigning an ID.
func (h *HistoryStore) Append(stage string, report *Report) (*Record, error) {
	rec := &Record{
		ID:       generateDeployID(),
		Time:     time.Now(),
		Stage:    stage,
		Artifact: report.Artifact,
		SHA256:   report.Hash.Base64,
		Bucket:   report.Bucket,
		Key:      report.Key,
		Uploaded: report.Uploaded,
		Failures: report.Failures,
		DryRun:   report.DryRun,
	}
	for _, upd := range report.Updates {
		rec.Functions = append(rec.Functions, upd.FunctionName)
	}
	// Dry runs never reach the update stage; keep the selection.
	if len(rec.Functions) == 0 {
		rec.Functions = append(rec.Functions, report.Selected...)
	}

	h.ds.Lock()
	defer h.ds.Unlock()

	if err := h.ds.EnsureDir(rec.ID); err != nil {
		return nil, err
	}
	if err := h.ds.WriteMeta(rec.ID, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns records newest first, up to limit (0 = all).
func (h *HistoryStore) List(limit int) ([]Record, error) {
	h.ds.RLock()
	defer h.ds.RUnlock()

	ids, err := h.ds.ListDirs()
	if err != nil {
		return nil, err
	}

	var records []Record
	for _, id := range ids {
		var rec Record
		if err := h.ds.ReadMeta(id, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Time.After(records[j].Time) })
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// generateDeployID creates a unique deployment identifier with "dep_" prefix.
func generateDeployID() string {
	u := uuid.New().String()
	return "dep_" + strings.ReplaceAll(u[:8], "-", "")
}
