package archive

import "testing"

var _ Storage = (*S3Storage)(nil)

func TestS3Storage_Key(t *testing.T) {
	tests := []struct {
		prefix string
		path   string
		want   string
	}{
		{"", "charts/a.json", "charts/a.json"},
		{"chartdesk", "charts/a.json", "chartdesk/charts/a.json"},
		{"chartdesk/", "/charts/a.json", "chartdesk/charts/a.json"},
	}

	for _, tt := range tests {
		s, err := NewS3(S3Config{Bucket: "b", Prefix: tt.prefix})
		if err != nil {
			t.Fatalf("NewS3: %v", err)
		}
		if got := s.key(tt.path); got != tt.want {
			t.Errorf("key(%q) with prefix %q = %q, want %q", tt.path, tt.prefix, got, tt.want)
		}
		if got := s.relative(s.key(tt.path)); got != "charts/a.json" {
			t.Errorf("relative(key(%q)) = %q", tt.path, got)
		}
	}
}

func TestNewS3_RequiresBucket(t *testing.T) {
	if _, err := NewS3(S3Config{}); err == nil {
		t.Error("expected error without bucket")
	}
}

func TestContentType(t *testing.T) {
	if got := contentType("a.json"); got != "application/json" {
		t.Errorf("contentType(json) = %q", got)
	}
	if got := contentType("a.bin"); got != "application/octet-stream" {
		t.Errorf("contentType(bin) = %q", got)
	}
}
