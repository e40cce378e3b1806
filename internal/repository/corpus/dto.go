package corpus

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	domdoc "github.com/kailas-cloud/tourdex/internal/domain/document"
	"github.com/kailas-cloud/tourdex/internal/domain/geo"
)

// Record is the wire/file shape of a corpus document.
type Record struct {
	ID           string    `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	Caption      string    `json:"caption,omitempty" yaml:"caption,omitempty"`
	Aliases      []string  `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Tags         []string  `json:"tags,omitempty" yaml:"tags,omitempty"`
	Province     string    `json:"province,omitempty" yaml:"province,omitempty"`
	Category     string    `json:"category,omitempty" yaml:"category,omitempty"`
	Rating       float64   `json:"rating,omitempty" yaml:"rating,omitempty"`
	Lat          *float64  `json:"lat,omitempty" yaml:"lat,omitempty"`
	Lng          *float64  `json:"lng,omitempty" yaml:"lng,omitempty"`
	LikeCount    int       `json:"like_count,omitempty" yaml:"like_count,omitempty"`
	CommentCount int       `json:"comment_count,omitempty" yaml:"comment_count,omitempty"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
}

// Document validates the record and converts it into a domain Document.
// Coordinates are used only when both lat and lng are present.
func (r *Record) Document() (domdoc.Document, error) {
	f := domdoc.Fields{
		ID:           r.ID,
		Name:         r.Name,
		Caption:      r.Caption,
		Aliases:      r.Aliases,
		Tags:         r.Tags,
		Province:     r.Province,
		Category:     r.Category,
		Rating:       r.Rating,
		LikeCount:    r.LikeCount,
		CommentCount: r.CommentCount,
		CreatedAt:    r.CreatedAt,
	}
	if r.Lat != nil && r.Lng != nil {
		f.Location = &geo.Point{Lat: *r.Lat, Lon: *r.Lng}
	}
	return domdoc.New(f)
}

// RecordFromDocument converts a domain Document into its wire shape.
func RecordFromDocument(doc *domdoc.Document) Record {
	r := Record{
		ID:           doc.ID(),
		Name:         doc.Name(),
		Caption:      doc.Caption(),
		Aliases:      doc.Aliases(),
		Tags:         doc.Tags(),
		Province:     doc.Province(),
		Category:     doc.Category(),
		Rating:       doc.Rating(),
		LikeCount:    doc.LikeCount(),
		CommentCount: doc.CommentCount(),
		CreatedAt:    doc.CreatedAt(),
	}
	if loc := doc.Location(); loc != nil {
		lat, lng := loc.Lat, loc.Lon
		r.Lat, r.Lng = &lat, &lng
	}
	return r
}

// Hash field names used by the redis driver.
const (
	fieldID           = "id"
	fieldName         = "name"
	fieldCaption      = "caption"
	fieldAliases      = "aliases"
	fieldTags         = "tags"
	fieldProvince     = "province"
	fieldCategory     = "category"
	fieldRating       = "rating"
	fieldLat          = "lat"
	fieldLng          = "lng"
	fieldLikeCount    = "like_count"
	fieldCommentCount = "comment_count"
	fieldCreatedAt    = "created_at"
)

// buildHashFields converts a domain Document into a flat map[string]string for HSET.
// Aliases and tags are stored as JSON arrays.
func buildHashFields(doc *domdoc.Document) (map[string]string, error) {
	aliases, err := json.Marshal(nonNil(doc.Aliases()))
	if err != nil {
		return nil, fmt.Errorf("marshal aliases: %w", err)
	}
	tags, err := json.Marshal(nonNil(doc.Tags()))
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}

	m := map[string]string{
		fieldID:           doc.ID(),
		fieldName:         doc.Name(),
		fieldCaption:      doc.Caption(),
		fieldAliases:      string(aliases),
		fieldTags:         string(tags),
		fieldProvince:     doc.Province(),
		fieldCategory:     doc.Category(),
		fieldRating:       strconv.FormatFloat(doc.Rating(), 'f', -1, 64),
		fieldLikeCount:    strconv.Itoa(doc.LikeCount()),
		fieldCommentCount: strconv.Itoa(doc.CommentCount()),
		fieldCreatedAt:    doc.CreatedAt().UTC().Format(time.RFC3339Nano),
	}
	if loc := doc.Location(); loc != nil {
		m[fieldLat] = strconv.FormatFloat(loc.Lat, 'f', -1, 64)
		m[fieldLng] = strconv.FormatFloat(loc.Lon, 'f', -1, 64)
	}
	return m, nil
}

// parseHashFields converts a flat hash map back into a validated domain Document.
// Missing numeric fields default to zero; malformed ones are errors.
func parseHashFields(m map[string]string) (domdoc.Document, error) {
	r := Record{
		ID:       m[fieldID],
		Name:     m[fieldName],
		Caption:  m[fieldCaption],
		Province: m[fieldProvince],
		Category: m[fieldCategory],
	}

	var err error
	if r.Aliases, err = parseList(m[fieldAliases]); err != nil {
		return domdoc.Document{}, fmt.Errorf("document %s: aliases: %w", r.ID, err)
	}
	if r.Tags, err = parseList(m[fieldTags]); err != nil {
		return domdoc.Document{}, fmt.Errorf("document %s: tags: %w", r.ID, err)
	}
	if r.Rating, err = parseFloat(m[fieldRating]); err != nil {
		return domdoc.Document{}, fmt.Errorf("document %s: rating: %w", r.ID, err)
	}
	if r.LikeCount, err = parseInt(m[fieldLikeCount]); err != nil {
		return domdoc.Document{}, fmt.Errorf("document %s: like_count: %w", r.ID, err)
	}
	if r.CommentCount, err = parseInt(m[fieldCommentCount]); err != nil {
		return domdoc.Document{}, fmt.Errorf("document %s: comment_count: %w", r.ID, err)
	}
	if r.CreatedAt, err = parseTime(m[fieldCreatedAt]); err != nil {
		return domdoc.Document{}, fmt.Errorf("document %s: created_at: %w", r.ID, err)
	}
	if lat, lng := m[fieldLat], m[fieldLng]; lat != "" && lng != "" {
		latF, err := strconv.ParseFloat(lat, 64)
		if err != nil {
			return domdoc.Document{}, fmt.Errorf("document %s: lat: %w", r.ID, err)
		}
		lngF, err := strconv.ParseFloat(lng, 64)
		if err != nil {
			return domdoc.Document{}, fmt.Errorf("document %s: lng: %w", r.ID, err)
		}
		r.Lat, r.Lng = &latF, &lngF
	}
	return r.Document()
}

func parseList(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
