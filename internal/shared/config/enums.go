//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package config

// AppEnv represents the application environment
// ENUM(local,production,development,testing)
type AppEnv string

// SessionStore selects where the account session blob is persisted
// ENUM(file,mongo)
type SessionStore string
