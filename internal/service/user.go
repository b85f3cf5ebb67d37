package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/msomdec/friendconnect/internal/domain"
)

// ProfileUpdate lists the profile fields a user may change. Nil or blank
// values leave the stored field untouched; a non-nil Interests slice
// replaces the whole set, so an empty slice clears it.
type ProfileUpdate struct {
	Name      *string
	Bio       *string
	Interests []string
	Avatar    *string
}

// UserFilter narrows the discovery listing. Empty fields match everyone.
type UserFilter struct {
	// Age is "min" or "min-max", both bounds inclusive.
	Age      string
	Location string
	Interest string
}

// AgeRange is a parsed UserFilter.Age.
type AgeRange struct {
	Min    int
	Max    int
	HasMax bool
}

// Contains reports whether age falls inside the range.
func (r AgeRange) Contains(age int) bool {
	if age < r.Min {
		return false
	}
	return !r.HasMax || age <= r.Max
}

// ParseAgeRange parses "min" or "min-max". An empty side means unbounded.
func ParseAgeRange(s string) (AgeRange, error) {
	var r AgeRange
	minPart, maxPart, hasDash := strings.Cut(strings.TrimSpace(s), "-")

	if minPart = strings.TrimSpace(minPart); minPart != "" {
		n, err := strconv.Atoi(minPart)
		if err != nil {
			return AgeRange{}, fmt.Errorf("%w: invalid age filter %q", domain.ErrInvalidInput, s)
		}
		r.Min = n
	}
	if maxPart = strings.TrimSpace(maxPart); hasDash && maxPart != "" {
		n, err := strconv.Atoi(maxPart)
		if err != nil {
			return AgeRange{}, fmt.Errorf("%w: invalid age filter %q", domain.ErrInvalidInput, s)
		}
		r.Max, r.HasMax = n, true
	}
	return r, nil
}

// UserService serves profile reads, edits and discovery.
type UserService struct {
	users domain.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(users domain.UserRepository) *UserService {
	return &UserService{users: users}
}

// Profile returns the user with the given ID.
func (s *UserService) Profile(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateProfile applies the provided fields of upd to the user.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, upd ProfileUpdate) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if v, ok := nonBlank(upd.Name); ok {
		user.Name = v
	}
	if v, ok := nonBlank(upd.Bio); ok {
		user.Bio = v
	}
	if v, ok := nonBlank(upd.Avatar); ok {
		user.Avatar = v
	}
	if upd.Interests != nil {
		user.Interests = normalizeInterests(upd.Interests)
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// List returns every user except excludeID that matches filter.
func (s *UserService) List(ctx context.Context, excludeID int64, filter UserFilter) ([]domain.User, error) {
	var ages *AgeRange
	if strings.TrimSpace(filter.Age) != "" {
		r, err := ParseAgeRange(filter.Age)
		if err != nil {
			return nil, err
		}
		ages = &r
	}
	location := strings.ToLower(strings.TrimSpace(filter.Location))
	interest := strings.ToLower(strings.TrimSpace(filter.Interest))

	all, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	out := []domain.User{}
	for _, u := range all {
		if u.ID == excludeID {
			continue
		}
		if ages != nil && !ages.Contains(u.Age) {
			continue
		}
		if location != "" && !strings.Contains(strings.ToLower(u.Location), location) {
			continue
		}
		if interest != "" && !hasInterest(u.Interests, interest) {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func hasInterest(interests []string, needle string) bool {
	for _, i := range interests {
		if strings.Contains(strings.ToLower(i), needle) {
			return true
		}
	}
	return false
}

// normalizeInterests trims tags and drops blanks and duplicates, keeping the
// first occurrence of each.
func normalizeInterests(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, tag := range in {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

func nonBlank(p *string) (string, bool) {
	if p == nil {
		return "", false
	}
	v := strings.TrimSpace(*p)
	return v, v != ""
}
