package mod

import (
	"fmt"
	"strconv"
)

// ChannelCount derives the channel count from a 4-byte signature. It returns
// 0 for signatures this package does not play.
func ChannelCount(sig string) int {
	switch sig {
	case "M.K.", "M!K!", "M&K!", "FLT4", "4CHN":
		return 4
	case "6CHN":
		return 6
	case "8CHN", "FLT8", "CD81", "OKTA", "OCTA":
		return 8
	case "2CHN":
		return 2
	}
	if len(sig) != 4 {
		return 0
	}
	switch {
	case isDigit(sig[0]) && isDigit(sig[1]) && sig[2] == 'C' && (sig[3] == 'H' || sig[3] == 'N'):
		n, _ := strconv.Atoi(sig[:2])
		return n
	case sig[:3] == "TDZ" && isDigit(sig[3]):
		return int(sig[3] - '0')
	case isDigit(sig[0]) && sig[1:] == "CHN":
		return int(sig[0] - '0')
	}
	return 0
}

// RowsPerPattern is 128 for the extended-pattern signature and 64 otherwise.
func RowsPerPattern(sig string) int {
	if sig == "M!K!" {
		return 128
	}
	return 64
}

// FormatDescription names the tracker family behind a signature, or returns
// "" when the signature is not recognised.
func FormatDescription(sig string) string {
	switch sig {
	case "M.K.", "4CHN":
		return "ProTracker"
	case "M!K!", "M&K!":
		return "ProTracker (extended patterns)"
	case "6CHN":
		return "ProTracker (6 channels)"
	case "8CHN":
		return "ProTracker (8 channels)"
	case "2CHN":
		return "FastTracker (2 channels)"
	case "CD81", "OKTA":
		return "Oktalyzer"
	case "OCTA":
		return "OctaMED"
	case "FLT4":
		return "StarTrekker"
	case "FLT8":
		return "StarTrekker (8 channels)"
	}
	n := ChannelCount(sig)
	if n == 0 {
		return ""
	}
	if sig[2:] == "CH" {
		return fmt.Sprintf("FastTracker (%d channels)", n)
	}
	return fmt.Sprintf("TakeTracker (%d channels)", n)
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
