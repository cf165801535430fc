package intel

import (
	"fmt"
	"strings"

	"github.com/helixgate/helixgate/internal/scan"
)

// genomicSampleSize caps how much text the declared-format checks parse.
const genomicSampleSize = 50 * 1024

// Distinct non-standard sequence characters tolerated before flagging.
// Real-world FASTA carries ambiguity codes and alignment gaps, so a handful
// of odd characters is normal.
const maxForeignSequenceChars = 5

// genomicFindings parses the structure a filename declares. These are soft
// signals: low/medium severity only, never a hard failure on their own.
func genomicFindings(content []byte, filename string) []scan.Finding {
	var findings []scan.Finding

	sample := content
	if len(sample) > genomicSampleSize {
		sample = sample[:genomicSampleSize]
	}
	text := strings.ToValidUTF8(string(sample), "�")
	lower := strings.ToLower(filename)

	switch {
	case strings.HasSuffix(lower, ".fasta") || strings.HasSuffix(lower, ".fa"):
		headers := strings.Count(text, ">")
		lines := strings.Count(text, "\n")
		if headers == 0 && lines > 10 {
			findings = append(findings, scan.Finding{
				Kind:        scan.KindGenomicStructure,
				Severity:    scan.SeverityMedium,
				Description: "FASTA file missing sequence headers",
			})
		}
		if foreign := foreignSequenceChars(text); len(foreign) > maxForeignSequenceChars {
			findings = append(findings, scan.Finding{
				Kind:        scan.KindGenomicStructure,
				Severity:    scan.SeverityLow,
				Description: "Non-standard nucleotide characters detected",
				Evidence:    fmt.Sprintf("%d distinct non-standard characters", len(foreign)),
			})
		}
	case strings.HasSuffix(lower, ".vcf"):
		if !strings.HasPrefix(text, "##") {
			findings = append(findings, scan.Finding{
				Kind:        scan.KindGenomicStructure,
				Severity:    scan.SeverityMedium,
				Description: "VCF file missing required header",
			})
		}
	}

	return findings
}

// foreignSequenceChars collects the distinct characters outside the
// nucleotide alphabet (A T G C N, case-insensitive) found in sequence lines.
// Header lines and whitespace don't count.
func foreignSequenceChars(text string) map[rune]struct{} {
	foreign := make(map[rune]struct{})
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, ">") {
			continue
		}
		for _, r := range line {
			switch r {
			case 'A', 'T', 'G', 'C', 'N', 'a', 't', 'g', 'c', 'n', ' ', '\t', '\r':
			default:
				foreign[r] = struct{}{}
			}
		}
	}
	return foreign
}
