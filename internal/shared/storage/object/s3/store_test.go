package s3

import "testing"

func TestApplyPrefix(t *testing.T) {
	cases := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{"empty prefix", "", "inbox/a.pdf", "inbox/a.pdf"},
		{"simple", "dms", "inbox/a.pdf", "dms/inbox/a.pdf"},
		{"slashes trimmed", "/dms/", "/inbox/a.pdf", "dms/inbox/a.pdf"},
		{"empty key", "dms", "", "dms"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := applyPrefix(tc.prefix, tc.key); got != tc.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tc.prefix, tc.key, got, tc.want)
			}
		})
	}
}

func TestStripPrefixRoundTrips(t *testing.T) {
	prefix := normalizePrefix("/dms/")
	key := "inbox/tenant-5/report.pdf"
	full := applyPrefix(prefix, key)
	if got := stripPrefix(prefix, full); got != key {
		t.Fatalf("stripPrefix(%q, %q) = %q, want %q", prefix, full, got, key)
	}
}

func TestEncodeTags(t *testing.T) {
	got := encodeTags(map[string]string{"ProcessedBy": "worker", "SourceKey": "inbox/a.pdf"})
	if got != "ProcessedBy=worker&SourceKey=inbox%2Fa.pdf" {
		t.Fatalf("unexpected tag encoding: %s", got)
	}
}
