package fsm

import (
	"fmt"
	"strings"

	"contentgpt/internal/domain"
)

// State is a position in a conversation flow
type State string

const (
	StateIdle State = "idle"

	StatePostTopic    State = "post_topic"
	StatePostStyle    State = "post_style"
	StatePostAudience State = "post_audience"
	StatePostCTA      State = "post_cta"

	StateStoryVector      State = "story_vector"
	StateIdeasTheme       State = "ideas_theme"
	StateCaptionTask      State = "caption_task"
	StateStyleExamples    State = "style_examples"
	StateEditInstructions State = "edit_instructions"
)

// Flow is a multi-step feature conversation
type Flow string

const (
	FlowPost    Flow = "post"
	FlowStory   Flow = "story"
	FlowIdeas   Flow = "ideas"
	FlowCaption Flow = "caption"
	FlowStyle   Flow = "style"
	FlowEdit    Flow = "edit"
)

// Step declares what a state expects: the question to ask, the field the
// answer fills, an optional closed set of choices, and the next state.
// Next == StateIdle marks the final, result-producing step.
type Step struct {
	Prompt  string
	Field   string
	Choices []string
	Next    State
}

// flowStart maps each flow to its first state
var flowStart = map[Flow]State{
	FlowPost:    StatePostTopic,
	FlowStory:   StateStoryVector,
	FlowIdeas:   StateIdeasTheme,
	FlowCaption: StateCaptionTask,
	FlowStyle:   StateStyleExamples,
	FlowEdit:    StateEditInstructions,
}

// steps is the transition table. Every non-idle state appears exactly once,
// so an impossible transition cannot be expressed.
var steps = map[State]Step{
	StatePostTopic: {
		Prompt: "📝 Пост: введи тему (например: «путешествия»).",
		Field:  "topic",
		Next:   StatePostStyle,
	},
	StatePostStyle: {
		Prompt:  "Шаг 2/4: выбери стиль.",
		Field:   "style",
		Choices: []string{"fun", "pro", "sales", "viral"},
		Next:    StatePostAudience,
	},
	StatePostAudience: {
		Prompt: "Шаг 3/4: напиши целевую аудиторию (например: «предприниматели»).",
		Field:  "audience",
		Next:   StatePostCTA,
	},
	StatePostCTA: {
		Prompt: "Шаг 4/4: напиши CTA (например: «подпишись», «напиши в ЛС»).",
		Field:  "cta",
		Next:   StateIdle,
	},
	StateStoryVector: {
		Prompt: "📱 История: выбери вектор/цель (например: «прогрев», «продажа», «вовлечение»).",
		Field:  "vector",
		Next:   StateIdle,
	},
	StateIdeasTheme: {
		Prompt: "💡 Идеи: укажи нишу/тему (например: «фитнес для занятых»).",
		Field:  "theme",
		Next:   StateIdle,
	},
	StateCaptionTask: {
		Prompt: "💬 Подпись: напиши задачу (тон, цель, оффер, длина).",
		Field:  "task",
		Next:   StateIdle,
	},
	StateStyleExamples: {
		Prompt: "🤖 Мой стиль: пришли 2–3 примера твоих постов одним сообщением.",
		Field:  "examples",
		Next:   StateIdle,
	},
	StateEditInstructions: {
		Prompt: "✏️ Напиши, какие правки внести (тон, структура, длина, что добавить/убрать).",
		Field:  "instructions",
		Next:   StateIdle,
	},
}

// maxInputLen bounds a single collected answer
const maxInputLen = 4000

// validate checks an input against the step's declared shape
func validate(step Step, input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return fmt.Errorf("empty input")
	}
	if len(input) > maxInputLen {
		return fmt.Errorf("input too long")
	}
	if len(step.Choices) > 0 {
		for _, c := range step.Choices {
			if input == c {
				return nil
			}
		}
		return fmt.Errorf("input %q is not one of the offered choices", input)
	}
	return nil
}

// Kind returns the content kind a flow produces. The edit flow has no kind
// of its own; it reuses the last result's.
func (f Flow) Kind() domain.ContentKind {
	switch f {
	case FlowStory:
		return domain.KindStory
	case FlowIdeas:
		return domain.KindIdeas
	case FlowCaption:
		return domain.KindCaption
	case FlowStyle:
		return domain.KindStyle
	default:
		return domain.KindPost
	}
}

// BuildPrompt assembles the generation prompt for a completed flow from its
// collected fields. The edit flow is assembled by the caller from the
// session's last result.
func BuildPrompt(flow Flow, fields map[string]string) string {
	switch flow {
	case FlowPost:
		return fmt.Sprintf(
			"Создай пост для соцсетей.\nТема: %s\nАудитория: %s\nСтиль: %s\nCTA: %s\n"+
				"Длина: 800–1200 знаков.\nДобавь структуру (абзацы/списки), эмодзи уместно.\n",
			fields["topic"], fields["audience"], fields["style"], fields["cta"],
		)
	case FlowStory:
		return fmt.Sprintf(
			"Сгенерируй сценарий сторис.\nЦель/вектор: %s\n"+
				"Формат: 5–7 слайдов, на каждом: текст + что показать + вопрос/CTA.\n",
			fields["vector"],
		)
	case FlowIdeas:
		return fmt.Sprintf(
			"Дай 10 идей контента.\nТема/ниша: %s\n"+
				"Сделай идеи разными по формату: пост, сторис, рилс, карусель, опрос.\n",
			fields["theme"],
		)
	case FlowCaption:
		return fmt.Sprintf(
			"Сгенерируй подпись к посту в соцсетях.\n"+
				"Дай 2 версии: формальная и неформальная.\nДобавь 10 хештегов.\nТЗ пользователя: %s\n",
			fields["task"],
		)
	default:
		return ""
	}
}
