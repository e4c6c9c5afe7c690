//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// DialogKind classifies a conversation in the account's dialog list
// ENUM(private, basic, supergroup, broadcast)
type DialogKind string
