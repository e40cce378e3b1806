package document

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/tourdex/internal/domain/geo"
)

// MaxIDLength is the maximum document identifier length.
const MaxIDLength = 256

// MaxRating is the upper bound of the rating scale.
const MaxRating = 5.0

// Fields carries the raw attributes of an attraction/post.
type Fields struct {
	ID           string
	Name         string
	Caption      string
	Aliases      []string
	Tags         []string
	Province     string
	Category     string
	Rating       float64
	Location     *geo.Point
	LikeCount    int
	CommentCount int
	CreatedAt    time.Time
}

// Document is an indexed attraction/post (immutable value object).
type Document struct {
	id           string
	name         string
	caption      string
	aliases      []string
	tags         []string
	province     string
	category     string
	rating       float64
	location     *geo.Point
	likeCount    int
	commentCount int
	createdAt    time.Time
}

// New validates and creates a Document.
// ID and name are required; rating is on a 0-5 scale; counters are non-negative.
func New(f Fields) (Document, error) {
	if f.ID == "" {
		return Document{}, fmt.Errorf("document ID is required")
	}
	if len(f.ID) > MaxIDLength {
		return Document{}, fmt.Errorf("document ID too long (max %d)", MaxIDLength)
	}
	if f.Name == "" {
		return Document{}, fmt.Errorf("document %s: name is required", f.ID)
	}
	if f.Rating < 0 || f.Rating > MaxRating {
		return Document{}, fmt.Errorf("document %s: rating must be between 0 and %.0f", f.ID, MaxRating)
	}
	if f.LikeCount < 0 || f.CommentCount < 0 {
		return Document{}, fmt.Errorf("document %s: counters must be non-negative", f.ID)
	}
	if f.Location != nil && !geo.ValidateCoordinates(f.Location.Lat, f.Location.Lon) {
		return Document{}, fmt.Errorf("document %s: invalid coordinates", f.ID)
	}
	return Reconstruct(f), nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(f Fields) Document {
	var loc *geo.Point
	if f.Location != nil {
		p := *f.Location
		loc = &p
	}
	return Document{
		id:           f.ID,
		name:         f.Name,
		caption:      f.Caption,
		aliases:      cloneStrings(f.Aliases),
		tags:         cloneStrings(f.Tags),
		province:     f.Province,
		category:     f.Category,
		rating:       f.Rating,
		location:     loc,
		likeCount:    f.LikeCount,
		commentCount: f.CommentCount,
		createdAt:    f.CreatedAt,
	}
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Name returns the attraction name.
func (d *Document) Name() string { return d.name }

// Caption returns the free-text description.
func (d *Document) Caption() string { return d.caption }

// Aliases returns alternative names.
func (d *Document) Aliases() []string { return d.aliases }

// Tags returns the tag set.
func (d *Document) Tags() []string { return d.tags }

// Province returns the province name.
func (d *Document) Province() string { return d.province }

// Category returns the category label.
func (d *Document) Category() string { return d.category }

// Rating returns the 0-5 rating; 0 means unrated.
func (d *Document) Rating() float64 { return d.rating }

// Location returns the coordinate, or nil when unknown.
func (d *Document) Location() *geo.Point { return d.location }

// LikeCount returns the number of likes.
func (d *Document) LikeCount() int { return d.likeCount }

// CommentCount returns the number of comments.
func (d *Document) CommentCount() int { return d.commentCount }

// CreatedAt returns the creation timestamp.
func (d *Document) CreatedAt() time.Time { return d.createdAt }

// Fields returns a copy of the raw attributes.
func (d *Document) Fields() Fields {
	var loc *geo.Point
	if d.location != nil {
		p := *d.location
		loc = &p
	}
	return Fields{
		ID:           d.id,
		Name:         d.name,
		Caption:      d.caption,
		Aliases:      cloneStrings(d.aliases),
		Tags:         cloneStrings(d.tags),
		Province:     d.province,
		Category:     d.category,
		Rating:       d.rating,
		Location:     loc,
		LikeCount:    d.likeCount,
		CommentCount: d.commentCount,
		CreatedAt:    d.createdAt,
	}
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	c := make([]string, len(s))
	copy(c, s)
	return c
}
