package service

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/iliyamo/movie-booking/internal/model"
)

// MovieStore is the catalog store used by CatalogService.
type MovieStore interface {
	ListAll(ctx context.Context) ([]model.Movie, error)
	GetByID(ctx context.Context, id uint64) (model.Movie, error)
	Create(ctx context.Context, m *model.Movie) error
	Update(ctx context.Context, m *model.Movie) error
	Delete(ctx context.Context, id uint64) error
}

// MovieInput is the admin form for creating or editing a movie.  Labels
// may be given as a list or as one comma separated string.
type MovieInput struct {
	Title       string   `json:"title" validate:"required,max=255"`
	Description string   `json:"description" validate:"max=5000"`
	Trailer     string   `json:"trailer" validate:"omitempty,url"`
	Image       string   `json:"image" validate:"omitempty,url"`
	Rating      *float64 `json:"rating" validate:"omitempty,gte=0,lte=10"`
	Labels      []string `json:"labels"`
	LabelsCSV   string   `json:"labels_csv"`
}

// ErrInvalidMovie reports a movie input that fails the catalog rules.
var ErrInvalidMovie = errors.New("invalid movie")

// CatalogService applies catalog rules on top of the movie store.
type CatalogService struct {
	movies MovieStore
}

func NewCatalogService(movies MovieStore) *CatalogService {
	return &CatalogService{movies: movies}
}

func (s *CatalogService) List(ctx context.Context) ([]model.Movie, error) {
	return s.movies.ListAll(ctx)
}

func (s *CatalogService) Get(ctx context.Context, id uint64) (model.Movie, error) {
	return s.movies.GetByID(ctx, id)
}

// Create stores a new movie built from in.
func (s *CatalogService) Create(ctx context.Context, in MovieInput) (model.Movie, error) {
	m, err := BuildMovie(in)
	if err != nil {
		return model.Movie{}, err
	}
	if err := s.movies.Create(ctx, &m); err != nil {
		return model.Movie{}, err
	}
	return m, nil
}

// Update replaces the movie with id.  A changed title renames it.
func (s *CatalogService) Update(ctx context.Context, id uint64, in MovieInput) (model.Movie, error) {
	m, err := BuildMovie(in)
	if err != nil {
		return model.Movie{}, err
	}
	m.ID = id
	if err := s.movies.Update(ctx, &m); err != nil {
		return model.Movie{}, err
	}
	return m, nil
}

func (s *CatalogService) Delete(ctx context.Context, id uint64) error {
	return s.movies.Delete(ctx, id)
}

// Recommended lists the catalog ordered for a user's categories.
func (s *CatalogService) Recommended(ctx context.Context, categories []string) ([]Recommendation, error) {
	movies, err := s.movies.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return Recommend(movies, categories), nil
}

// BuildMovie normalizes in into a Movie.
func BuildMovie(in MovieInput) (model.Movie, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return model.Movie{}, errors.Join(ErrInvalidMovie, errors.New("title is required"))
	}
	if err := ValidateRating(in.Rating); err != nil {
		return model.Movie{}, err
	}
	labels := in.Labels
	if len(labels) == 0 && in.LabelsCSV != "" {
		labels = strings.Split(in.LabelsCSV, ",")
	}
	return model.Movie{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Trailer:     ToEmbedURL(strings.TrimSpace(in.Trailer)),
		Image:       strings.TrimSpace(in.Image),
		Rating:      in.Rating,
		Labels:      NormalizeLabels(labels),
	}, nil
}

// ValidateRating accepts a missing rating or one in [0, 10].
func ValidateRating(r *float64) error {
	if r != nil && (*r < 0 || *r > 10) {
		return errors.Join(ErrInvalidMovie, errors.New("rating must be between 0 and 10"))
	}
	return nil
}

// NormalizeLabels trims labels and drops empty and repeated ones,
// keeping first occurrence order.
func NormalizeLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}

var youtubeID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ToEmbedURL rewrites youtu.be and youtube.com/watch links to the
// embeddable form.  Other URLs are returned unchanged.
func ToEmbedURL(raw string) string {
	if raw == "" || strings.Contains(raw, "youtube.com/embed/") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	var id string
	switch {
	case host == "youtu.be":
		id = strings.Trim(u.Path, "/")
	case (host == "youtube.com" || host == "m.youtube.com") && u.Path == "/watch":
		id = u.Query().Get("v")
	}
	if id == "" || !youtubeID.MatchString(id) {
		return raw
	}
	return "https://www.youtube.com/embed/" + id
}

// Recommendation is a movie with how many of its labels match the
// user's favourite categories.
type Recommendation struct {
	model.Movie
	Matches int  `json:"matches"`
	Match   bool `json:"match"`
}

// Recommend orders movies by label matches against categories, most
// matches first, then by title.  Labels match exactly.
func Recommend(movies []model.Movie, categories []string) []Recommendation {
	want := make(map[string]bool, len(categories))
	for _, c := range categories {
		want[c] = true
	}
	out := make([]Recommendation, 0, len(movies))
	for _, m := range movies {
		n := 0
		for _, l := range m.Labels {
			if want[l] {
				n++
			}
		}
		out = append(out, Recommendation{Movie: m, Matches: n, Match: n > 0})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Matches != out[j].Matches {
			return out[i].Matches > out[j].Matches
		}
		return out[i].Title < out[j].Title
	})
	return out
}
