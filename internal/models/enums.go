package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// ReportStatus is the triage state of a Report.
type ReportStatus int8

const (
	ReportPending ReportStatus = iota + 1
	ReportReviewed
	ReportDismissed
)

var reportStatusNames = map[ReportStatus]string{
	ReportPending:   "pending",
	ReportReviewed:  "reviewed",
	ReportDismissed: "dismissed",
}

func (s ReportStatus) String() string { return enumName(reportStatusNames, s) }

func (s ReportStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s ReportStatus) Value() (driver.Value, error) { return int64(s), nil }

func (s *ReportStatus) Scan(src any) error { return scanSmallInt(src, s) }

func (s *ReportStatus) UnmarshalText(b []byte) error {
	return parseInto(reportStatusNames, string(b), s, "report status")
}

// ParseReportStatus parses a lowercase report status name.
func ParseReportStatus(v string) (ReportStatus, error) {
	var s ReportStatus
	err := parseInto(reportStatusNames, v, &s, "report status")
	return s, err
}

// ReportCategory is the reason class a user picks when filing a report.
type ReportCategory int8

const (
	CategorySpam ReportCategory = iota + 1
	CategoryOffensive
	CategorySexual
	CategoryViolence
	CategoryCopyright
	CategoryOther
)

var reportCategoryNames = map[ReportCategory]string{
	CategorySpam:      "spam",
	CategoryOffensive: "offensive",
	CategorySexual:    "sexual",
	CategoryViolence:  "violence",
	CategoryCopyright: "copyright",
	CategoryOther:     "other",
}

func (c ReportCategory) String() string { return enumName(reportCategoryNames, c) }

func (c ReportCategory) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c ReportCategory) Value() (driver.Value, error) { return int64(c), nil }

func (c *ReportCategory) Scan(src any) error { return scanSmallInt(src, c) }

func (c *ReportCategory) UnmarshalText(b []byte) error {
	return parseInto(reportCategoryNames, string(b), c, "report category")
}

func (c ReportCategory) Valid() bool {
	_, ok := reportCategoryNames[c]
	return ok
}

func ParseReportCategory(v string) (ReportCategory, error) {
	var c ReportCategory
	err := parseInto(reportCategoryNames, v, &c, "report category")
	return c, err
}

// ReviewStatus is Open until the review is closed by a moderator or the resolver.
type ReviewStatus int8

const (
	ReviewOpen ReviewStatus = iota + 1
	ReviewClosed
)

var reviewStatusNames = map[ReviewStatus]string{
	ReviewOpen:   "open",
	ReviewClosed: "closed",
}

func (s ReviewStatus) String() string { return enumName(reviewStatusNames, s) }

func (s ReviewStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s ReviewStatus) Value() (driver.Value, error) { return int64(s), nil }

func (s *ReviewStatus) Scan(src any) error { return scanSmallInt(src, s) }

func (s *ReviewStatus) UnmarshalText(b []byte) error {
	return parseInto(reviewStatusNames, string(b), s, "review status")
}

func ParseReviewStatus(v string) (ReviewStatus, error) {
	var s ReviewStatus
	err := parseInto(reviewStatusNames, v, &s, "review status")
	return s, err
}

// Outcome is Pending while a review is open and Keep or Remove afterwards.
type Outcome int8

const (
	OutcomePending Outcome = iota + 1
	OutcomeKeep
	OutcomeRemove
)

var outcomeNames = map[Outcome]string{
	OutcomePending: "pending",
	OutcomeKeep:    "keep",
	OutcomeRemove:  "remove",
}

func (o Outcome) String() string { return enumName(outcomeNames, o) }

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o Outcome) Value() (driver.Value, error) { return int64(o), nil }

func (o *Outcome) Scan(src any) error { return scanSmallInt(src, o) }

func (o *Outcome) UnmarshalText(b []byte) error {
	return parseInto(outcomeNames, string(b), o, "outcome")
}

// Final reports whether o is a terminal disposition.
func (o Outcome) Final() bool { return o == OutcomeKeep || o == OutcomeRemove }

// VoteValue is a voter's choice on a review.
type VoteValue int8

const (
	VoteKeep VoteValue = iota + 1
	VoteRemove
)

var voteValueNames = map[VoteValue]string{
	VoteKeep:   "keep",
	VoteRemove: "remove",
}

func (v VoteValue) String() string { return enumName(voteValueNames, v) }

func (v VoteValue) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

func (v VoteValue) Value() (driver.Value, error) { return int64(v), nil }

func (v *VoteValue) Scan(src any) error { return scanSmallInt(src, v) }

func (v *VoteValue) UnmarshalText(b []byte) error {
	return parseInto(voteValueNames, string(b), v, "vote value")
}

func (v VoteValue) Valid() bool {
	_, ok := voteValueNames[v]
	return ok
}

func ParseVoteValue(v string) (VoteValue, error) {
	var vv VoteValue
	err := parseInto(voteValueNames, v, &vv, "vote value")
	return vv, err
}

// Visibility is the moderation-controlled field of an image.
type Visibility int8

const (
	VisibilityActive Visibility = iota + 1
	VisibilityPendingReview
	VisibilityRemoved
)

var visibilityNames = map[Visibility]string{
	VisibilityActive:        "active",
	VisibilityPendingReview: "pending_review",
	VisibilityRemoved:       "removed",
}

func (v Visibility) String() string { return enumName(visibilityNames, v) }

func (v Visibility) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

func (v Visibility) Value() (driver.Value, error) { return int64(v), nil }

func (v *Visibility) Scan(src any) error { return scanSmallInt(src, v) }

func (v *Visibility) UnmarshalText(b []byte) error {
	return parseInto(visibilityNames, string(b), v, "visibility")
}

// VisibilityFor maps a final review outcome to the image state it implies.
func VisibilityFor(o Outcome) Visibility {
	if o == OutcomeRemove {
		return VisibilityRemoved
	}
	return VisibilityActive
}

func enumName[T ~int8](names map[T]string, v T) string {
	if n, ok := names[v]; ok {
		return n
	}
	return fmt.Sprintf("unknown(%d)", v)
}

func parseInto[T comparable](names map[T]string, raw string, dst *T, what string) error {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for k, n := range names {
		if n == raw {
			*dst = k
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q", what, raw)
}

func scanSmallInt[T ~int8](src any, dst *T) error {
	switch v := src.(type) {
	case int64:
		*dst = T(v)
	case int32:
		*dst = T(v)
	case int16:
		*dst = T(v)
	case nil:
		*dst = 0
	default:
		return fmt.Errorf("cannot scan %T into %T", src, dst)
	}
	return nil
}
