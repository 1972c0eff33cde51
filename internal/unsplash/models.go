package unsplash

import (
	"fmt"
	"time"
)

// Photo is one entry of the photo feed. Identity is ID; LikedByMe is the only
// mutable field and only flips after a confirmed like/unlike response.
type Photo struct {
	ID          string    `json:"id"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	CreatedAt   time.Time `json:"created_at"`
	Description string    `json:"description"`
	ThumbURL    string    `json:"thumb_url"`
	FullURL     string    `json:"full_url"`
	LikedByMe   bool      `json:"liked_by_me"`
}

// Size returns a human-readable dimension string.
func (p Photo) Size() string {
	if p.Width <= 0 || p.Height <= 0 {
		return "unknown"
	}
	return fmt.Sprintf("%dx%d", p.Width, p.Height)
}

// photoResult is the wire shape of a photo as returned by the API.
type photoResult struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	LikedByUser bool      `json:"liked_by_user"`
	Description *string   `json:"description"`
	URLs        struct {
		Full  string `json:"full"`
		Small string `json:"small"`
		Thumb string `json:"thumb"`
	} `json:"urls"`
}

func (r photoResult) toPhoto() Photo {
	description := ""
	if r.Description != nil {
		description = *r.Description
	}
	return Photo{
		ID:          r.ID,
		Width:       r.Width,
		Height:      r.Height,
		CreatedAt:   r.CreatedAt,
		Description: description,
		ThumbURL:    r.URLs.Thumb,
		FullURL:     r.URLs.Full,
		LikedByMe:   r.LikedByUser,
	}
}

// likeResult is the wire shape of a like/unlike response.
type likeResult struct {
	Photo photoResult `json:"photo"`
}

// Profile is the logged-in user's profile, fetched fresh each session.
type Profile struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Bio       string `json:"bio"`
}

// DisplayName returns the combined first and last name, falling back to the
// username.
func (p Profile) DisplayName() string {
	if p.FirstName == "" && p.LastName == "" {
		return p.Username
	}
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// LoginHandle returns the username prefixed with @.
func (p Profile) LoginHandle() string {
	return "@" + p.Username
}

type profileResult struct {
	Username  string  `json:"username"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Bio       *string `json:"bio"`
}

func (r profileResult) toProfile() Profile {
	bio := ""
	if r.Bio != nil {
		bio = *r.Bio
	}
	return Profile{
		Username:  r.Username,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Bio:       bio,
	}
}

// userResult is the wire shape of the public user endpoint, of which only the
// avatar variants are consumed.
type userResult struct {
	ProfileImage struct {
		Small  string `json:"small"`
		Medium string `json:"medium"`
		Large  string `json:"large"`
	} `json:"profile_image"`
}
