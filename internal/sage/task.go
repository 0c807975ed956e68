package sage

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"
)

var (
	ErrUnknownPersona  = errors.New("unknown persona")
	ErrUnknownCategory = errors.New("unknown category")
	ErrEmptyContent    = errors.New("content is required")
)

type Category string

const (
	Gratitude     Category = "gratitude"
	Philosophical Category = "philosophical"
)

func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case Gratitude, Philosophical:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
}

type TaskName string

const (
	TaskInsight     TaskName = "insight"
	TaskDeepInsight TaskName = "deep-insight"
	TaskBlessing    TaskName = "blessing"
	TaskFeedback    TaskName = "feedback"
	TaskSummary     TaskName = "summary"
)

// Task describes how one kind of sage request is framed and what is shown
// when the model fails or answers with nothing.
type Task struct {
	Name TaskName
	// Framing is appended to the persona prompt. It sees .Context.
	Framing *template.Template
	// Contexts maps a category to the sentence describing what the user is doing.
	Contexts    map[Category]string
	UserPrefix  string
	Placeholder string
	DefaultText string
	Temperature float32
	MaxTokens   int
}

type framingData struct {
	Context string
}

// SystemPrompt layers the task framing over the persona prompt.
func (t *Task) SystemPrompt(p Persona, category Category) (string, error) {
	var buf bytes.Buffer
	if err := t.Framing.Execute(&buf, framingData{Context: t.Contexts[category]}); err != nil {
		return "", fmt.Errorf("render %s framing: %w", t.Name, err)
	}
	framing := strings.TrimSpace(buf.String())
	if framing == "" {
		return p.SystemPrompt, nil
	}
	return p.SystemPrompt + "\n\n" + framing, nil
}

func (t *Task) UserMessage(content string) string {
	return t.UserPrefix + content
}

var writingContexts = map[Category]string{
	Gratitude:     "用户正在进行感恩写作练习",
	Philosophical: "用户正在进行哲思写作练习",
}

var completionContexts = map[Category]string{
	Gratitude:     "用户完成了一篇感恩日记",
	Philosophical: "用户完成了一篇哲思日记",
}

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 500
)

var tasks = map[TaskName]*Task{
	TaskInsight: {
		Name:        TaskInsight,
		Framing:     template.Must(template.New("insight").Parse(`{{.Context}}。请根据用户的写作内容，提供简短而有深度的引导（100-150字），帮助他们深化思考和感恩体验。`)),
		Contexts:    writingContexts,
		UserPrefix:  "我的写作内容：\n\n",
		Placeholder: "暂时无法获取启示，请稍后再试...",
		DefaultText: "请继续你的思考...",
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	},
	TaskDeepInsight: {
		Name:        TaskDeepInsight,
		Framing:     template.Must(template.New("deep-insight").Parse(`{{.Context}}。请根据用户的写作内容，提供有深度的引导（150-250字），帮助他们深化思考和感恩体验。请以高维视角、不着相、充满慈爱的方式回应。`)),
		Contexts:    writingContexts,
		UserPrefix:  "我的写作内容：\n\n",
		Placeholder: "暂时无法获取启示，请稍后再试...",
		DefaultText: "请继续你的思考...",
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	},
	TaskBlessing: {
		Name: TaskBlessing,
		Framing: template.Must(template.New("blessing").Parse(`用户完成了一段自由记录。请根据用户的内容，给出有深度的评论、建议与鼓励（100-150字）。

你的回应应该：
- 首先肯定用户愿意记录和表达的勇气
- 对用户的内容给出有洞察力的回应
- 提供温暖的建议或新的视角
- 以鼓励和祝福结尾

语气要温暖、真诚，以高维视角、不着相、充满慈爱的方式回应。`)),
		UserPrefix:  "我的记录：\n\n",
		Placeholder: "感谢你的分享，继续保持这份觉察。",
		DefaultText: "感谢你的分享，继续保持这份觉察。",
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	},
	TaskFeedback: {
		Name:        TaskFeedback,
		Framing:     template.Must(template.New("feedback").Parse(`{{.Context}}。请根据用户的写作内容，给出有深度的寄语（80-120字）。语气要温暖、真诚，以高维视角、不着相、充满慈爱的方式回应，让用户感到被看见、被理解、被肯定。`)),
		Contexts:    completionContexts,
		UserPrefix:  "我的日记内容：\n\n",
		Placeholder: "写得真好！",
		DefaultText: "写得真好！",
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	},
	TaskSummary: {
		Name:        TaskSummary,
		Framing:     template.Must(template.New("summary").Parse(``)),
		Placeholder: "感恩你的分享，继续保持这份觉察。",
		DefaultText: "感恩你的分享，继续保持这份觉察。",
		Temperature: defaultTemperature,
		MaxTokens:   200,
	},
}

// LookupTask returns the task definition for name.
func LookupTask(name TaskName) (*Task, error) {
	t, ok := tasks[name]
	if !ok {
		return nil, fmt.Errorf("unknown sage task %q", name)
	}
	return t, nil
}

func mustTask(name TaskName) *Task {
	t, err := LookupTask(name)
	if err != nil {
		panic(err)
	}
	return t
}
