package thaiid

import "time"

// Record is the content of one identity card. Text fields hold the decoded card values;
// dates stay in their raw YYYYMMDD Buddhist Era form and are formatted by the *Display
// helpers. Photo is nil when the card holds no usable picture.
type Record struct {
	CitizenID   string `json:"cid" yaml:"cid"`
	ThaiName    string `json:"th_fullname" yaml:"th_fullname"`
	EnglishName string `json:"en_fullname" yaml:"en_fullname"`
	DateOfBirth string `json:"dob" yaml:"dob"`
	Gender      string `json:"gender" yaml:"gender"`
	Issuer      string `json:"issuer" yaml:"issuer"`
	IssueDate   string `json:"issue_date" yaml:"issue_date"`
	ExpiryDate  string `json:"expire_date" yaml:"expire_date"`
	Address     string `json:"address" yaml:"address"`

	Photo []byte `json:"-" yaml:"-"`
}

// citizenIDLength is the number of digits of a citizen ID.
const citizenIDLength = 13

// HasPhoto reports whether the card held a photo of at least the minimum size.
func (r *Record) HasPhoto() bool {
	return len(r.Photo) > 0
}

// DateOfBirthDisplay returns the date of birth as DD/MM/YYYY (Buddhist Era).
func (r *Record) DateOfBirthDisplay() string {
	return FormatBuddhistDate(r.DateOfBirth)
}

// IssueDateDisplay returns the issue date as DD/MM/YYYY (Buddhist Era).
func (r *Record) IssueDateDisplay() string {
	return FormatBuddhistDate(r.IssueDate)
}

// ExpiryDateDisplay returns the expiry date as DD/MM/YYYY (Buddhist Era).
func (r *Record) ExpiryDateDisplay() string {
	return FormatBuddhistDate(r.ExpiryDate)
}

// GenderCode returns the raw gender field as a Gender.
func (r *Record) GenderCode() Gender {
	return Gender(r.Gender)
}

// Expired reports whether the expiry date lies before now. Cards whose expiry date does not
// parse (lifelong cards use 99999999) never expire.
func (r *Record) Expired(now time.Time) bool {
	expiry, ok := ParseBuddhistDate(r.ExpiryDate)
	if !ok {
		return false
	}
	// The card stays valid through the whole expiry day.
	return now.After(expiry.AddDate(0, 0, 1))
}

// PhotoFilename is the default file name for the saved photo: <cid>.jpg when the citizen ID
// is 13 digits, photo.jpg otherwise.
func (r *Record) PhotoFilename() string {
	if !isDigits(r.CitizenID, citizenIDLength) {
		return "photo.jpg"
	}
	return r.CitizenID + ".jpg"
}

// Summary is the presentation form of a Record: dates formatted, gender labelled.
type Summary struct {
	CitizenID   string `json:"cid" yaml:"cid"`
	ThaiName    string `json:"th_fullname" yaml:"th_fullname"`
	EnglishName string `json:"en_fullname" yaml:"en_fullname"`
	DateOfBirth string `json:"dob" yaml:"dob"`
	Gender      string `json:"gender" yaml:"gender"`
	Issuer      string `json:"issuer" yaml:"issuer"`
	IssueDate   string `json:"issue_date" yaml:"issue_date"`
	ExpiryDate  string `json:"expire_date" yaml:"expire_date"`
	Address     string `json:"address" yaml:"address"`
	Expired     bool   `json:"expired" yaml:"expired"`
	PhotoSize   int    `json:"photo_size" yaml:"photo_size"`
}

// Summarize builds the Summary of r as of now.
func (r *Record) Summarize(now time.Time) Summary {
	return Summary{
		CitizenID:   r.CitizenID,
		ThaiName:    r.ThaiName,
		EnglishName: r.EnglishName,
		DateOfBirth: r.DateOfBirthDisplay(),
		Gender:      r.GenderCode().Label(),
		Issuer:      r.Issuer,
		IssueDate:   r.IssueDateDisplay(),
		ExpiryDate:  r.ExpiryDateDisplay(),
		Address:     r.Address,
		Expired:     r.Expired(now),
		PhotoSize:   len(r.Photo),
	}
}
