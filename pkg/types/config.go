// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// InputFormat selects how the loader reads its input.
type InputFormat string

const (
	InputAuto InputFormat = "auto"
	InputPDF  InputFormat = "pdf"
	InputText InputFormat = "text"
)

// LoaderConfig holds settings for the load stage.
type LoaderConfig struct {
	// Format is auto, pdf or text. Auto reads .txt files as text and
	// everything else as PDF.
	Format InputFormat `json:"format" yaml:"format"`

	// Password opens encrypted PDFs. Falls back to the pdf-password secret.
	Password string `json:"password,omitempty" yaml:"password,omitempty"`

	// Strict runs a structural PDF validation before text extraction.
	Strict bool `json:"strict" yaml:"strict"`
}

// NormalizerConfig holds settings for the normalize stage.
type NormalizerConfig struct {
	// LineTolerance is the maximum vertical distance in points between a
	// fragment and the first fragment of its line (default 3).
	LineTolerance float64 `json:"line_tolerance" yaml:"line_tolerance"`

	// WordGap is the horizontal gap, as a fraction of the font size, above
	// which a space is inserted between fragments (default 0.25).
	WordGap float64 `json:"word_gap" yaml:"word_gap"`

	// ColumnGap is the horizontal gap, as a multiple of the font size, above
	// which a new column starts (default 1.0).
	ColumnGap float64 `json:"column_gap" yaml:"column_gap"`
}

// ParserConfig holds settings for the parse stage.
type ParserConfig struct {
	// StartSection is the section assumed before any header (default library).
	StartSection Section `json:"start_section" yaml:"start_section"`
}

// DuplicatePolicy decides how repeated card entries are classified.
type DuplicatePolicy string

const (
	// DuplicateReject keeps the first occurrence and rejects the others.
	DuplicateReject DuplicatePolicy = "reject"
	// DuplicateWarn warns every occurrence.
	DuplicateWarn DuplicatePolicy = "warn"
)

// ValidatorConfig holds settings for the validate stage.
type ValidatorConfig struct {
	// Duplicates is reject (default) or warn.
	Duplicates DuplicatePolicy `json:"duplicates" yaml:"duplicates"`

	// MaxCopies warns card entries above this quantity. Zero disables it.
	MaxCopies int `json:"max_copies" yaml:"max_copies"`

	// CryptMin is the minimum crypt size (default 12).
	CryptMin int `json:"crypt_min" yaml:"crypt_min"`

	// LibraryMin and LibraryMax bound the library size (default 60..90).
	LibraryMin int `json:"library_min" yaml:"library_min"`
	LibraryMax int `json:"library_max" yaml:"library_max"`
}

// CatalogConfig names the sources of known card names.
type CatalogConfig struct {
	// ImagesDir is a folder of card images named by image key.
	ImagesDir string `json:"images_dir" yaml:"images_dir"`

	// File is a YAML card list.
	File string `json:"file" yaml:"file"`
}

// Enabled reports whether any catalog source is configured.
func (c CatalogConfig) Enabled() bool {
	return c.ImagesDir != "" || c.File != ""
}

// ReportFormat selects the report serialization.
type ReportFormat string

const (
	FormatText ReportFormat = "text"
	FormatCSV  ReportFormat = "csv"
	FormatPDF  ReportFormat = "pdf"
	FormatJSON ReportFormat = "json"
	FormatYAML ReportFormat = "yaml"
	FormatXLSX ReportFormat = "xlsx"
)

// ReportConfig holds settings for the report stage.
type ReportConfig struct {
	// Format is text, csv, pdf, json, yaml or xlsx.
	Format ReportFormat `json:"format" yaml:"format"`

	// Output is the report path. Empty or "-" writes to stdout.
	Output string `json:"output" yaml:"output"`

	// MaxRejected is the number of rejected records tolerated before the run
	// fails. Negative means unlimited (default -1).
	MaxRejected int `json:"max_rejected" yaml:"max_rejected"`
}

// ProxyConfig holds settings for proxy-sheet generation. Sizes are in
// millimeters, offsets and gaps in points.
type ProxyConfig struct {
	Output     string  `json:"output" yaml:"output"`
	CardWidth  float64 `json:"card_width" yaml:"card_width"`
	CardHeight float64 `json:"card_height" yaml:"card_height"`
	Columns    int     `json:"columns" yaml:"columns"`
	Rows       int     `json:"rows" yaml:"rows"`
	Gap        float64 `json:"gap" yaml:"gap"`
	OffsetX    float64 `json:"offset_x" yaml:"offset_x"`
	OffsetY    float64 `json:"offset_y" yaml:"offset_y"`

	// SkipWarned leaves out cards whose record carries a warning.
	SkipWarned bool `json:"skip_warned" yaml:"skip_warned"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Loader     LoaderConfig     `json:"loader" yaml:"loader"`
	Normalizer NormalizerConfig `json:"normalizer" yaml:"normalizer"`
	Parser     ParserConfig     `json:"parser" yaml:"parser"`
	Validator  ValidatorConfig  `json:"validator" yaml:"validator"`
	Catalog    CatalogConfig    `json:"catalog" yaml:"catalog"`
	Report     ReportConfig     `json:"report" yaml:"report"`
	Proxy      ProxyConfig      `json:"proxy" yaml:"proxy"`
}

// DefaultPipelineConfig returns the configuration used when no file, env
// variable or flag overrides a value.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Loader: LoaderConfig{Format: InputAuto},
		Normalizer: NormalizerConfig{
			LineTolerance: 3,
			WordGap:       0.25,
			ColumnGap:     1.0,
		},
		Parser: ParserConfig{StartSection: SectionLibrary},
		Validator: ValidatorConfig{
			Duplicates: DuplicateReject,
			CryptMin:   12,
			LibraryMin: 60,
			LibraryMax: 90,
		},
		Report: ReportConfig{
			Format:      FormatText,
			MaxRejected: -1,
		},
		Proxy: ProxyConfig{
			Output:     "output.pdf",
			CardWidth:  63.5,
			CardHeight: 88.9,
			Columns:    3,
			Rows:       3,
			Gap:        1,
			OffsetX:    25,
			OffsetY:    25,
		},
	}
}
