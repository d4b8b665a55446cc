package certificates

// Course-level certificate policy values.
const (
	PolicyCompletion    = "completion"
	PolicyParticipation = "participation"
	PolicyBoth          = "both"
)

// Outcome is the certificate an enrollment qualifies for.
type Outcome string

const (
	OutcomeNone          Outcome = ""
	OutcomeParticipation Outcome = "participation"
	OutcomeCompletion    Outcome = "completion"
)

type Policy struct {
	CertificateType         string
	NumDays                 int
	MinDaysForParticipation int
}

// Evaluate applies the course policy to an attendance count.
// Completion wins whenever both thresholds are met.
func Evaluate(p Policy, daysAttended int) Outcome {
	completed := daysAttended >= p.NumDays
	participated := daysAttended >= p.MinDaysForParticipation

	switch p.CertificateType {
	case PolicyCompletion:
		if completed {
			return OutcomeCompletion
		}
	case PolicyParticipation:
		if participated {
			return OutcomeParticipation
		}
	case PolicyBoth:
		if completed {
			return OutcomeCompletion
		}
		if participated {
			return OutcomeParticipation
		}
	}
	return OutcomeNone
}
