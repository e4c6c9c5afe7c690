//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// EventKind tells which kind of update carried the message
// ENUM(message,edited_message,channel_post,edited_channel_post)
type EventKind string

// Action is the outcome of running an event through the pipeline
// ENUM(notify,suppress,drop)
type Action string

// Reason explains an Action
// ENUM(notified,self_message,bot_message,unresolved_chat,not_monitored,excluded,notification_chat,private_chat,broadcast_channel,empty_content,irrelevant,duplicate)
type Reason string
