// Package ingest implements the inbox ingestion pipeline: metadata
// derivation, content-hash deduplication, text extraction, durable
// persistence, and the copy-verify-delete state mover.
package ingest

import (
	"encoding/json"
	"path"
	"regexp"
	"strconv"
	"strings"

	"dms-backend/internal/shared/storage/object"
	"dms-backend/internal/shared/telemetry"
)

// Object tag keys recognized on inbox objects.
const (
	tagTenantID       = "TenantId"
	tagDocumentTypeID = "DocumentTypeId"
	tagTitle          = "Title"
	tagDescription    = "Description"
	tagTags           = "Tags"
	tagMetadata       = "Metadata"
)

var tenantSegmentRe = regexp.MustCompile(`^tenant-(\d+)$`)

// Metadata is everything derived about an inbox object before ingestion.
type Metadata struct {
	TenantID       int64
	DocumentTypeID int64
	Title          string
	Description    string
	Tags           []string
	Extra          map[string]any
}

// MetadataExtractor derives document metadata from an inbox object's tags
// and its key. It never fails: malformed or missing values fall back to
// the configured defaults.
type MetadataExtractor struct {
	DefaultTenantID  int64
	DefaultDocTypeID int64
	InboxPrefix      string
}

// FromObject derives metadata for one inbox object. Precedence for the
// tenant id is path convention > TenantId tag > default: a leading
// "tenant-<integer>" key segment always wins so that misconfigured tags
// cannot cross-file documents between tenants.
func (m *MetadataExtractor) FromObject(info object.Info) Metadata {
	meta := Metadata{
		TenantID:       m.DefaultTenantID,
		DocumentTypeID: m.DefaultDocTypeID,
	}

	if raw, ok := info.Tags[tagTenantID]; ok {
		if id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil && id > 0 {
			meta.TenantID = id
		} else {
			telemetry.Warn("ignoring malformed TenantId tag", map[string]any{"key": info.Key, "value": raw})
		}
	}
	if id, ok := tenantFromKey(m.InboxPrefix, info.Key); ok {
		meta.TenantID = id
	}

	if raw, ok := info.Tags[tagDocumentTypeID]; ok {
		if id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil && id > 0 {
			meta.DocumentTypeID = id
		} else {
			telemetry.Warn("ignoring malformed DocumentTypeId tag", map[string]any{"key": info.Key, "value": raw})
		}
	}

	meta.Title = strings.TrimSpace(info.Tags[tagTitle])
	if meta.Title == "" {
		meta.Title = titleFromFilename(info.Key)
	}
	meta.Description = strings.TrimSpace(info.Tags[tagDescription])

	if raw, ok := info.Tags[tagTags]; ok && raw != "" {
		var tags []string
		if err := json.Unmarshal([]byte(raw), &tags); err == nil {
			meta.Tags = compactStrings(tags)
		} else {
			telemetry.Warn("ignoring malformed Tags tag", map[string]any{"key": info.Key, "value": raw})
		}
	}

	if raw, ok := info.Tags[tagMetadata]; ok && raw != "" {
		var extra map[string]any
		if err := json.Unmarshal([]byte(raw), &extra); err == nil {
			meta.Extra = extra
		} else {
			telemetry.Warn("ignoring malformed Metadata tag", map[string]any{"key": info.Key, "value": raw})
		}
	}

	return meta
}

// tenantFromKey reports the tenant id encoded in the object key's first
// segment after the inbox prefix, if any.
func tenantFromKey(inboxPrefix, key string) (int64, bool) {
	rel := strings.TrimPrefix(key, strings.Trim(inboxPrefix, "/")+"/")
	segment := rel
	if idx := strings.Index(rel, "/"); idx >= 0 {
		segment = rel[:idx]
	}
	m := tenantSegmentRe.FindStringSubmatch(segment)
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func titleFromFilename(key string) string {
	base := path.Base(key)
	return strings.TrimSuffix(base, path.Ext(base))
}

func compactStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
