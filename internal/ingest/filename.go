package ingest

import (
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var filenamePattern = regexp.MustCompile(`^(.+?)_(\d{4})[-_](\d{2})\.(?i:xlsx)$`)

// FileInfo is a workbook name with the campaign identity derived from it.
type FileInfo struct {
	Name     string    // Base name as listed by the source
	Campaign string    // Name without the month token and extension
	Month    time.Time // First day of the month; zero when the name has no YYYY-MM token
}

// ParseFilename splits "{Campaign}_{YYYY-MM}.xlsx" into campaign name and month.
// Names without a valid month token keep the bare file stem as campaign name
// and report ok == false.
func ParseFilename(name string) (campaign string, month time.Time, ok bool) {
	base := path.Base(name)
	stem := strings.TrimSuffix(base, path.Ext(base))

	m := filenamePattern.FindStringSubmatch(base)
	if m == nil {
		return stem, time.Time{}, false
	}
	year, _ := strconv.Atoi(m[2])
	mon, _ := strconv.Atoi(m[3])
	if mon < 1 || mon > 12 {
		return stem, time.Time{}, false
	}
	return m[1], time.Date(year, time.Month(mon), 1, 0, 0, 0, 0, time.UTC), true
}

// IsWorkbook reports whether a file name is an .xlsx workbook. Office lock
// files ("~$name.xlsx") are not.
func IsWorkbook(name string) bool {
	base := path.Base(name)
	return strings.EqualFold(path.Ext(base), ".xlsx") && !strings.HasPrefix(base, "~$")
}

// Describe parses every name into a FileInfo.
func Describe(names []string) []FileInfo {
	infos := make([]FileInfo, 0, len(names))
	for _, n := range names {
		campaign, month, _ := ParseFilename(n)
		infos = append(infos, FileInfo{Name: n, Campaign: campaign, Month: month})
	}
	return infos
}

// SortFiles orders workbooks newest month first. Files with the same month
// are ordered by name; files without a month come last in alphabetical order.
func SortFiles(files []FileInfo) {
	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		aDated, bDated := !a.Month.IsZero(), !b.Month.IsZero()
		if aDated != bDated {
			return aDated
		}
		if aDated && !a.Month.Equal(b.Month) {
			return a.Month.After(b.Month)
		}
		return a.Name < b.Name
	})
}
