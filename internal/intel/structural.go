package intel

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/helixgate/helixgate/internal/scan"
)

// Longest run of one byte tolerated before content looks like an overflow
// probe. Backreference regexes can't express this, so it is a direct scan.
const maxByteRun = 500

const repetitionChunkSize = 100

// structuralFindings runs the content-shape checks that need no signature:
// declared-format mismatches, entropy smuggling, binary injection, size
// anomalies and templated input.
func (m *Matcher) structuralFindings(content []byte, filename string) []scan.Finding {
	var findings []scan.Finding

	lower := strings.ToLower(filename)
	declaredText := strings.HasSuffix(lower, ".fasta") ||
		strings.HasSuffix(lower, ".fa") ||
		strings.HasSuffix(lower, ".vcf")

	if declaredText && len(content) > 0 && content[0] != '>' && content[0] != '#' {
		findings = append(findings, scan.Finding{
			Kind:        scan.KindStatisticalAnomaly,
			Severity:    scan.SeverityMedium,
			Description: "File extension mismatch: expected FASTA/VCF header",
		})
	}

	sample := content
	if len(sample) > m.cfg.SampleSize {
		sample = sample[:m.cfg.SampleSize]
	}

	if e := scan.Entropy(sample); e > m.cfg.EntropyCeiling {
		findings = append(findings, scan.Finding{
			Kind:        scan.KindStatisticalAnomaly,
			Severity:    scan.SeverityMedium,
			Description: fmt.Sprintf("Unusually high entropy: %.2f (possible encrypted content)", e),
		})
	}

	head := content
	if len(head) > 1024 {
		head = head[:1024]
	}
	if declaredText && bytes.IndexByte(head, 0x00) >= 0 {
		findings = append(findings, scan.Finding{
			Kind:        scan.KindStatisticalAnomaly,
			Severity:    scan.SeverityMedium,
			Description: "Null bytes detected in file (possible binary injection)",
		})
	}

	if int64(len(content)) > m.cfg.MaxFileSize {
		findings = append(findings, scan.Finding{
			Kind:        scan.KindStatisticalAnomaly,
			Severity:    scan.SeverityMedium,
			Description: "Suspiciously large file size",
		})
	}

	if run := longestByteRun(sample); run > maxByteRun {
		findings = append(findings, scan.Finding{
			Kind:        scan.KindStatisticalAnomaly,
			Severity:    scan.SeverityMedium,
			Description: "Potential buffer overflow",
			Evidence:    fmt.Sprintf("%d identical consecutive bytes", run),
		})
	}

	if hasRepeatedChunks(sample) {
		findings = append(findings, scan.Finding{
			Kind:        scan.KindStatisticalAnomaly,
			Severity:    scan.SeverityMedium,
			Description: "Repeated patterns detected (possible crafted input)",
		})
	}

	return findings
}

func longestByteRun(data []byte) int {
	longest, run := 0, 0
	var prev byte
	for i, b := range data {
		if i > 0 && b == prev {
			run++
		} else {
			run = 1
			prev = b
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// hasRepeatedChunks reports whether any two 100-byte chunks of the sampled
// prefix are identical, a tell of templated/crafted input.
func hasRepeatedChunks(sample []byte) bool {
	if len(sample) <= repetitionChunkSize {
		return false
	}
	seen := make(map[string]struct{}, len(sample)/repetitionChunkSize+1)
	for i := 0; i < len(sample); i += repetitionChunkSize {
		end := i + repetitionChunkSize
		if end > len(sample) {
			end = len(sample)
		}
		chunk := string(sample[i:end])
		if _, dup := seen[chunk]; dup {
			return true
		}
		seen[chunk] = struct{}{}
	}
	return false
}
