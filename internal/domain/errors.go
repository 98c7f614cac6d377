package domain

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Auth
	ErrInvalidPhone         = errors.New("invalid phone number")
	ErrInvalidCode          = errors.New("invalid verification code")
	ErrCodeExpired          = errors.New("verification code expired")
	ErrTooManyAttempts      = errors.New("too many verification attempts")
	ErrRoleRequired         = errors.New("role is required for new users")
	ErrInvalidToken         = errors.New("invalid token")
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrKYCNotVerified       = errors.New("rider KYC is not verified")
	ErrKYCNotApplicable     = errors.New("KYC applies to riders only")
	ErrKYCAlreadyVerified   = errors.New("KYC is already verified")
	ErrKYCNoDocument        = errors.New("no KYC document submitted")
	ErrNotRider             = errors.New("only riders can perform this action")
	ErrNotSeeker            = errors.New("only seekers can perform this action")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrProfileAlreadyExists = errors.New("profile already exists")

	// Uploads
	ErrFileTooLarge        = errors.New("file too large")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrTooManyPhotos       = errors.New("too many photos")
	ErrPhotoNotFound       = errors.New("photo not found")

	// Rides
	ErrRideNotFound       = errors.New("ride not found")
	ErrCannotCancel       = errors.New("cannot cancel a completed ride")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrRideNotAvailable   = errors.New("ride is not available")
	ErrRideAlreadyMatched = errors.New("ride already has an active match")
	ErrCannotSwipeOwnRide = errors.New("cannot swipe on your own ride")
	ErrSwipeNotFound      = errors.New("swipe not found")

	// Matches
	ErrMatchNotFound     = errors.New("match not found")
	ErrMatchNotPending   = errors.New("match is not pending")
	ErrMatchNotActive    = errors.New("ride has no active match")
	ErrMatchNotCompleted = errors.New("match is not completed")

	// Ratings
	ErrRatingNotFound = errors.New("rating not found")

	// Payments
	ErrPaymentNotFound = errors.New("payment not found")
	ErrPaymentWaived   = errors.New("payment waived for mutual date")
	ErrAlreadyPaid     = errors.New("payment already completed")
	ErrPaymentFailed   = errors.New("payment failed")
	ErrPaymentPending  = errors.New("payment has no provider intent")

	ErrPaymentUnavailable = errors.New("payment provider unavailable")
)
