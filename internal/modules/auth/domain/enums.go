//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// State is where the login flow currently stands
// ENUM(unauthenticated,code_requested,code_submitted,two_factor_required,authenticated,flood_wait)
type State string

// ErrorKind classifies platform failures the login flow reacts to
// ENUM(flood_wait,migrate,password_needed,code_invalid,code_expired,unauthorized)
type ErrorKind string
