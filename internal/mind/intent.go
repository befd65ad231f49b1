package mind

import "strings"

// Intent is the discrete handling branch selected for a message. The enum
// is closed; routing is total and always lands on a branch.
type Intent int

const (
	IntentGeneralConversation Intent = iota
	IntentGenerateImage
	IntentGenerateUserPortrait
	IntentGetWeather
	IntentGetUserKnowledge
	IntentTagUser
	IntentGetMyName
	IntentSearchImages
)

func (i Intent) String() string {
	switch i {
	case IntentGenerateImage:
		return "generate_image"
	case IntentGenerateUserPortrait:
		return "generate_user_portrait"
	case IntentGetWeather:
		return "get_weather"
	case IntentGetUserKnowledge:
		return "get_user_knowledge"
	case IntentTagUser:
		return "tag_user"
	case IntentGetMyName:
		return "get_my_name"
	case IntentSearchImages:
		return "search_images"
	default:
		return "general_conversation"
	}
}

var intentNames = map[string]Intent{
	"generate_image":         IntentGenerateImage,
	"generate_user_portrait": IntentGenerateUserPortrait,
	"get_weather":            IntentGetWeather,
	"get_user_knowledge":     IntentGetUserKnowledge,
	"tag_user":               IntentTagUser,
	"get_my_name":            IntentGetMyName,
	"search_images":          IntentSearchImages,
	"general_conversation":   IntentGeneralConversation,
}

// Route applies deterministic policy on top of the classifier's proposal:
// unknown names fall back to general conversation, an attachment overrides a
// tag_user guess (the bot should react to the image, not tag someone), and
// missing arguments get their per-intent defaults.
func Route(in InboundMessage, name string, args map[string]string) (Intent, map[string]string) {
	if args == nil {
		args = map[string]string{}
	}
	intent, ok := intentNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		intent = IntentGeneralConversation
	}

	if in.HasAttachment && intent == IntentTagUser {
		intent = IntentGeneralConversation
	}

	cleaned := strings.TrimSpace(in.Content)
	switch intent {
	case IntentGetWeather:
		if args["location"] == "" {
			args["location"] = cleaned
		}
	case IntentGetUserKnowledge, IntentGenerateUserPortrait:
		if args["target_user"] == "" {
			args["target_user"] = in.UserID
		}
	case IntentTagUser:
		if args["user_to_tag"] == "" {
			args["user_to_tag"] = in.UserID
		}
	case IntentGenerateImage:
		if args["prompt"] == "" {
			args["prompt"] = cleaned
		}
	case IntentSearchImages:
		if args["query"] == "" {
			args["query"] = cleaned
		}
	}
	return intent, args
}

// ReplyAction is the outcome of the reply-context sub-router.
type ReplyAction int

const (
	ReplyChat ReplyAction = iota
	ReplyEditImage
)

// editVerbs are the first-word triggers that mark a reply to an image as an
// edit request without consulting the classifier.
var editVerbs = map[string]struct{}{
	"edit": {}, "add": {}, "remove": {}, "change": {}, "make": {},
	"turn": {}, "put": {}, "replace": {}, "give": {}, "swap": {},
	"delete": {}, "erase": {}, "crop": {}, "recolor": {}, "redraw": {},
	"fix": {}, "draw": {},
}

// RouteReply decides edit-vs-chat for a message that replies to an image.
// A first-word lexicon hit wins and skips the classifier call; otherwise the
// binary classifier decides, defaulting to chat.
func RouteReply(content string, classifier Classifier) ReplyAction {
	fields := strings.Fields(strings.ToLower(content))
	if len(fields) > 0 {
		first := strings.Trim(fields[0], ".,!?")
		if _, ok := editVerbs[first]; ok {
			return ReplyEditImage
		}
	}
	if classifier != nil && classifier.IsImageEdit(content) {
		return ReplyEditImage
	}
	return ReplyChat
}
