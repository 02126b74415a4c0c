package bus

import (
	"fmt"
	"sort"
)

// Topic names a channel on the bus. Only topics in the catalogue are legal.
type Topic string

const (
	DirectoryChangeRequestedTopic Topic = "DirectoryChangeRequested"
	DirectoryChangedTopic         Topic = "DirectoryChanged"
	RenameRequestedTopic          Topic = "RenameRequested"
	RenameCompletedTopic          Topic = "RenameCompleted"
	MoveRequestedTopic            Topic = "MoveRequested"
	MoveCompletedTopic            Topic = "MoveCompleted"
	DeleteRequestedTopic          Topic = "DeleteRequested"
	DeleteCompletedTopic          Topic = "DeleteCompleted"
	CreateRequestedTopic          Topic = "CreateRequested"
	CreateCompletedTopic          Topic = "CreateCompleted"
	ChildrenRequestedTopic        Topic = "ChildrenRequested"
	ChildrenRespondedTopic        Topic = "ChildrenResponded"

	SelectionChangedTopic  Topic = "SelectionChanged"
	DetailsToggledTopic    Topic = "DetailsToggled"
	OpenFileRequestedTopic Topic = "OpenFileRequested"
)

var catalogue = map[Topic]struct{}{
	DirectoryChangeRequestedTopic: {},
	DirectoryChangedTopic:         {},
	RenameRequestedTopic:          {},
	RenameCompletedTopic:          {},
	MoveRequestedTopic:            {},
	MoveCompletedTopic:            {},
	DeleteRequestedTopic:          {},
	DeleteCompletedTopic:          {},
	CreateRequestedTopic:          {},
	CreateCompletedTopic:          {},
	ChildrenRequestedTopic:        {},
	ChildrenRespondedTopic:        {},
	SelectionChangedTopic:         {},
	DetailsToggledTopic:           {},
	OpenFileRequestedTopic:        {},
}

// Known reports whether the topic belongs to the catalogue.
func Known(t Topic) bool {
	_, ok := catalogue[t]
	return ok
}

// Topics lists the catalogue in a stable order.
func Topics() []Topic {
	out := make([]Topic, 0, len(catalogue))
	for t := range catalogue {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RequestTopics are published by views and consumed by the conductor.
func RequestTopics() []Topic {
	return []Topic{
		DirectoryChangeRequestedTopic,
		RenameRequestedTopic,
		MoveRequestedTopic,
		DeleteRequestedTopic,
		CreateRequestedTopic,
		ChildrenRequestedTopic,
	}
}

// ResponseTopics carry authoritative state back to the views.
func ResponseTopics() []Topic {
	return []Topic{
		DirectoryChangedTopic,
		RenameCompletedTopic,
		MoveCompletedTopic,
		DeleteCompletedTopic,
		CreateCompletedTopic,
		ChildrenRespondedTopic,
	}
}

// UnknownTopicError is returned when subscribing or publishing outside the
// catalogue.
type UnknownTopicError struct {
	Topic Topic
}

func (e *UnknownTopicError) Error() string {
	return fmt.Sprintf("unknown topic %q", string(e.Topic))
}
