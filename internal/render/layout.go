package render

// Layout tables. Units are PDF points; baselines are measured from the top
// edge of the page.

type rgb struct{ R, G, B int }

var (
	colorPrimary = rgb{30, 58, 95}   // #1e3a5f
	colorGold    = rgb{212, 175, 55} // #d4af37
	colorGray    = rgb{102, 102, 102}
	colorDark    = rgb{77, 77, 77}
	colorLight   = rgb{153, 153, 153}
	colorBlack   = rgb{0, 0, 0}
)

type fontSpec struct {
	Family string
	Style  string
	Size   float64
}

type textStyle struct {
	Font  fontSpec
	Color rgb
}

var (
	helvetica     = func(size float64) fontSpec { return fontSpec{"Helvetica", "", size} }
	helveticaBold = func(size float64) fontSpec { return fontSpec{"Helvetica", "B", size} }
	timesItalic   = func(size float64) fontSpec { return fontSpec{"Times", "I", size} }
)

type certField int

const (
	fieldTitle certField = iota
	fieldCertifies
	fieldAttendee
	fieldAction
	fieldCourse
	fieldDays
	fieldDates
	fieldIssued
	fieldInstructor
	fieldCompany
	fieldCode
)

type certLine struct {
	Field    certField
	Baseline float64
	Style    textStyle
}

// certificateLines is drawn top to bottom, every line centered.
var certificateLines = []certLine{
	{fieldTitle, 120, textStyle{helveticaBold(32), colorPrimary}},
	{fieldCertifies, 180, textStyle{timesItalic(16), colorGray}},
	{fieldAttendee, 230, textStyle{helveticaBold(36), colorPrimary}},
	{fieldAction, 270, textStyle{timesItalic(16), colorGray}},
	{fieldCourse, 310, textStyle{helveticaBold(24), colorPrimary}},
	{fieldDays, 350, textStyle{helvetica(14), colorGray}},
	{fieldDates, 372, textStyle{helvetica(12), colorGray}},
	{fieldIssued, 394, textStyle{helvetica(12), colorGray}},
	{fieldInstructor, 440, textStyle{helvetica(12), colorPrimary}},
	{fieldCompany, 505, textStyle{helveticaBold(14), colorPrimary}},
	{fieldCode, 545, textStyle{helvetica(10), colorGray}},
}

type frame struct {
	Inset float64
	Width float64
	Color rgb
}

var certificateGeometry = struct {
	PageW, PageH float64
	Outer, Inner frame

	RuleY, RuleHalfWidth, RuleWidth float64

	LongCourseName int
	LongCourseSize float64

	LogoTop, LogoHeight float64
	WatermarkBox        float64
	WatermarkOpacity    float64
}{
	PageW: 792, PageH: 612,
	Outer: frame{30, 3, colorGold},
	Inner: frame{40, 1, colorPrimary},

	RuleY: 140, RuleHalfWidth: 150, RuleWidth: 2,

	LongCourseName: 40,
	LongCourseSize: 20,

	LogoTop: 46, LogoHeight: 40,
	WatermarkBox:     340,
	WatermarkOpacity: 0.06,
}

type reportColumn struct {
	Header string
	X      float64
}

var reportColumns = struct {
	Name, Org, Days, Hours, Cert, Code reportColumn
}{
	Name:  reportColumn{"Attendee", 50},
	Org:   reportColumn{"Organization", 180},
	Days:  reportColumn{"Days", 300},
	Hours: reportColumn{"Hours", 360},
	Cert:  reportColumn{"Certificate", 420},
	Code:  reportColumn{"Code", 500},
}

var reportGeometry = struct {
	PageW, PageH float64
	Left, Right  float64
	Top, Footer  float64

	RowsPerPage int
	RowHeight   float64

	NameMax, NameKeep int
	OrgMax, OrgKeep   int
	DescWidth         int
	DescLines         int
}{
	PageW: 612, PageH: 792,
	Left: 50, Right: 562,
	Top: 50, Footer: 762,

	RowsPerPage: 20,
	RowHeight:   18,

	NameMax: 22, NameKeep: 20,
	OrgMax: 18, OrgKeep: 16,
	DescWidth: 80,
	DescLines: 3,
}

var reportStyles = struct {
	Title, Course, Body, Summary, Continued, ColHeader, Cell, CellMuted, Code, Footer textStyle
	SigTitle, SigBody, SigLabel, SigName                                              textStyle
}{
	Title:     textStyle{helveticaBold(24), colorPrimary},
	Course:    textStyle{helveticaBold(16), colorBlack},
	Body:      textStyle{helvetica(10), colorDark},
	Summary:   textStyle{helveticaBold(10), colorBlack},
	Continued: textStyle{helveticaBold(12), colorPrimary},
	ColHeader: textStyle{helveticaBold(9), colorBlack},
	Cell:      textStyle{helvetica(9), colorBlack},
	CellMuted: textStyle{helvetica(9), colorDark},
	Code:      textStyle{helvetica(8), colorLight},
	Footer:    textStyle{helvetica(8), colorLight},
	SigTitle:  textStyle{helveticaBold(18), colorPrimary},
	SigBody:   textStyle{helvetica(11), colorBlack},
	SigLabel:  textStyle{helveticaBold(11), colorBlack},
	SigName:   textStyle{helvetica(10), colorDark},
}
