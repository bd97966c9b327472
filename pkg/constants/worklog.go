package constants

// WorkLogStatus approval state of a time-tracking entry
type WorkLogStatus string

const (
	WorkLogStatusPending  WorkLogStatus = "PENDING"
	WorkLogStatusApproved WorkLogStatus = "APPROVED"
	WorkLogStatusRejected WorkLogStatus = "REJECTED"
)

func (s WorkLogStatus) String() string {
	return string(s)
}

// QualityRating performance band assigned per user per day
type QualityRating string

const (
	QualityRatingGood    QualityRating = "GOOD"
	QualityRatingAverage QualityRating = "AVERAGE"
	QualityRatingBad     QualityRating = "BAD"
)

func (r QualityRating) String() string {
	return string(r)
}

// Score returns the productivity score bound to the rating
func (r QualityRating) Score() float64 {
	switch r {
	case QualityRatingGood:
		return 10.0
	case QualityRatingBad:
		return 3.0
	default:
		return 7.0
	}
}

// QualitySource origin of a quality record
type QualitySource string

const (
	QualitySourceManual   QualitySource = "MANUAL"
	QualitySourceAutoCalc QualitySource = "AUTO_CALC"
)

func (s QualitySource) String() string {
	return string(s)
}

// UnknownWorkRole is used when a user has no membership in the project
const UnknownWorkRole = "UNKNOWN"
