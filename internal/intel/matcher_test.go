package intel

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/helixgate/helixgate/internal/config"
	"github.com/helixgate/helixgate/internal/scan"
)

func newTestMatcher() *Matcher {
	return NewMatcher(config.Default().Intel)
}

func findByDescription(findings []scan.Finding, substr string) *scan.Finding {
	for i := range findings {
		if strings.Contains(findings[i].Description, substr) {
			return &findings[i]
		}
	}
	return nil
}

func TestScanCleanFASTAHasNoFindings(t *testing.T) {
	m := newTestMatcher()
	findings := m.Scan([]byte(">s\nATCG\n"), "x.fasta")
	if len(findings) != 0 {
		t.Fatalf("clean FASTA should produce no findings, got %+v", findings)
	}
}

func TestScanSQLInjectionIsCritical(t *testing.T) {
	m := newTestMatcher()
	findings := m.Scan([]byte("' OR '1'='1"), "payload.txt")
	f := findByDescription(findings, "SQL injection")
	if f == nil {
		t.Fatalf("expected SQL injection finding, got %+v", findings)
	}
	if f.Severity != scan.SeverityCritical {
		t.Fatalf("SQL injection must be critical, got %s", f.Severity)
	}
	if f.Kind != scan.KindPatternMatch {
		t.Fatalf("expected pattern_match kind, got %s", f.Kind)
	}
}

func TestScanXSSIsCritical(t *testing.T) {
	m := newTestMatcher()
	findings := m.Scan([]byte("<script>alert(1)</script>"), "x.txt")
	f := findByDescription(findings, "XSS")
	if f == nil {
		t.Fatalf("expected XSS finding, got %+v", findings)
	}
	if f.Severity != scan.SeverityCritical {
		t.Fatalf("XSS must be critical, got %s", f.Severity)
	}
}

func TestScanPathTraversalAndFileInclusion(t *testing.T) {
	m := newTestMatcher()
	findings := m.Scan([]byte("../../etc/passwd"), "x.txt")
	if findByDescription(findings, "Path traversal") == nil {
		t.Fatalf("expected path traversal finding, got %+v", findings)
	}
	if findByDescription(findings, "File inclusion") == nil {
		t.Fatalf("expected file inclusion finding, got %+v", findings)
	}
}

func TestScanOversizedContentFlagged(t *testing.T) {
	m := newTestMatcher()
	blob := make([]byte, 51*1024*1024)
	findings := m.Scan(blob, "big.bin")
	if findByDescription(findings, "large file size") == nil {
		t.Fatalf("expected size anomaly for 51MB blob, got %+v", findings)
	}
}

func TestScanExtensionHeaderMismatch(t *testing.T) {
	m := newTestMatcher()
	findings := m.Scan([]byte("This is not a FASTA file"), "malformed.fasta")
	if findByDescription(findings, "extension mismatch") == nil {
		t.Fatalf("expected extension mismatch, got %+v", findings)
	}
}

func TestScanNullBytesInDeclaredTextFormat(t *testing.T) {
	m := newTestMatcher()
	content := append([]byte(">s\nAT"), 0x00, 0x00)
	content = append(content, []byte("CG\n")...)
	findings := m.Scan(content, "x.fasta")
	if findByDescription(findings, "Null bytes") == nil {
		t.Fatalf("expected null byte finding, got %+v", findings)
	}
}

func TestScanHighEntropyFlagged(t *testing.T) {
	m := newTestMatcher()
	data := make([]byte, 8192)
	for i := range data {
		data[i] = byte(i % 256)
	}
	findings := m.Scan(data, "opaque.bin")
	if findByDescription(findings, "high entropy") == nil {
		t.Fatalf("expected entropy finding, got %+v", findings)
	}
}

func TestScanRepeatedChunks(t *testing.T) {
	m := newTestMatcher()
	chunk := bytes.Repeat([]byte{'G', 'A', 'T', 'C', 'A'}, 20) // 100 bytes
	content := bytes.Repeat(chunk, 5)
	findings := m.Scan(content, "crafted.bin")
	if findByDescription(findings, "Repeated patterns") == nil {
		t.Fatalf("expected repetition finding, got %+v", findings)
	}
}

func TestScanLongByteRun(t *testing.T) {
	m := newTestMatcher()
	findings := m.Scan(bytes.Repeat([]byte{'A'}, 600), "overflow.txt")
	if findByDescription(findings, "buffer overflow") == nil {
		t.Fatalf("expected overflow finding, got %+v", findings)
	}
}

func TestScanMalformedFASTAHeaderSignature(t *testing.T) {
	m := newTestMatcher()
	content := []byte(">>" + strings.Repeat("X", 1100))
	findings := m.Scan(content, "x.txt")
	f := findByDescription(findings, "Malformed FASTA header")
	if f == nil {
		t.Fatalf("expected malformed header finding, got %+v", findings)
	}
	if f.Severity != scan.SeverityLow {
		t.Fatalf("malformed header should be low severity, got %s", f.Severity)
	}
}

func TestScanIdempotent(t *testing.T) {
	m := newTestMatcher()
	content := []byte("' OR '1'='1 and also ../../etc/passwd")
	first := m.Scan(content, "x.txt")
	second := m.Scan(content, "x.txt")
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("scan must be idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestScanInvalidUTF8DoesNotPanic(t *testing.T) {
	m := newTestMatcher()
	content := []byte{0xff, 0xfe, '<', 's', 'c', 0x80}
	_ = m.Scan(content, "junk.bin")
}

func TestGenomicMissingFASTAHeaders(t *testing.T) {
	content := []byte(strings.Repeat("ATCGATCG\n", 12))
	findings := genomicFindings(content, "headless.fasta")
	if findByDescription(findings, "missing sequence headers") == nil {
		t.Fatalf("expected missing-header finding, got %+v", findings)
	}
}

func TestGenomicForeignCharacterTolerance(t *testing.T) {
	// A few ambiguity codes are tolerated.
	tolerated := genomicFindings([]byte(">s\nATCGRYKM\n"), "x.fa")
	if findByDescription(tolerated, "Non-standard nucleotide") != nil {
		t.Fatalf("fewer than 6 foreign characters must not be flagged: %+v", tolerated)
	}

	flagged := genomicFindings([]byte(">s\nATCG0123456789\n"), "x.fa")
	f := findByDescription(flagged, "Non-standard nucleotide")
	if f == nil {
		t.Fatalf("expected foreign character finding, got %+v", flagged)
	}
	if f.Severity != scan.SeverityLow {
		t.Fatalf("foreign characters should be low severity, got %s", f.Severity)
	}
}

func TestGenomicVCFHeader(t *testing.T) {
	ok := genomicFindings([]byte("##fileformat=VCFv4.2\n"), "v.vcf")
	if len(ok) != 0 {
		t.Fatalf("valid VCF header should have no findings, got %+v", ok)
	}
	bad := genomicFindings([]byte("CHROM POS ID\n"), "v.vcf")
	if findByDescription(bad, "VCF file missing") == nil {
		t.Fatalf("expected VCF header finding, got %+v", bad)
	}
}

func TestMatcherStats(t *testing.T) {
	m := newTestMatcher()
	m.Scan([]byte(">s\nATCG\n"), "x.fasta")
	m.Scan([]byte("' OR '1'='1"), "x.txt")
	st := m.Stats()
	if st.TotalScans != 2 {
		t.Fatalf("expected 2 scans, got %d", st.TotalScans)
	}
	if st.TotalFindings == 0 {
		t.Fatalf("expected findings counted")
	}
}
