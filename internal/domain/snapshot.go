package domain

// SnapshotItem is the persisted shape of a selected line. Amounts are plain
// JSON numbers so pages written against the storefront keys keep working.
type SnapshotItem struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Quantity         int     `json:"quantity"`
	UnitPriceOnceOff float64 `json:"unitPriceOnceOff"`
	Image            string  `json:"image"`
	IsBaseStation    bool    `json:"isBaseStation"`
}

type SelectionMeta struct {
	ExtensionCount int `json:"extensionCount"`
}

// SelectionSnapshot is written on every quantity change and read once by the
// checkout page.
type SelectionSnapshot struct {
	Items []SnapshotItem `json:"items"`
	Meta  SelectionMeta  `json:"meta"`
}

// SolutionTotals feeds the summary widgets on other pages.
type SolutionTotals struct {
	Monthly float64 `json:"monthly"`
	OnceOff float64 `json:"onceOff"`
}

type PackageDevice struct {
	Device string `json:"device"`
	Number int    `json:"number"`
}

// PackageChoice is written by the package-selection flow and supersedes a
// custom build.
type PackageChoice struct {
	Name            string          `json:"name"`
	Monthly         float64         `json:"monthly"`
	OnceOff         float64         `json:"onceOff"`
	Devices         []PackageDevice `json:"devices"`
	MinutesIncluded int             `json:"minutesIncluded,omitempty"`
	Extensions      int             `json:"extensions,omitempty"`
	IsVoiceOnly     bool            `json:"isVoiceOnly,omitempty"`
	IsWireless      bool            `json:"isWireless,omitempty"`
	Tags            []string        `json:"tags,omitempty"`
	ImageBase       string          `json:"imageBase,omitempty"`
}

type PortingMode string

const (
	PortingNew  PortingMode = "new"
	PortingPort PortingMode = "port"
)

type PortingChoice struct {
	Mode       PortingMode `json:"mode"`
	RegionCode string      `json:"regionCode,omitempty"`
	Region     string      `json:"region,omitempty"`
	Numbers    []string    `json:"numbers,omitempty"`
}
