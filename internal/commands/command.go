package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sandeepkv93/blockd/internal/model"
)

type Type string

const (
	// Mutations emitted by the planner for the data layer to persist.
	TypeCreateBlock    Type = "block"
	TypeAssignTask     Type = "assign"
	TypeUpdateEstimate Type = "estimate"

	// User actions against the current plan.
	TypeAccept  Type = "accept"
	TypeIgnore  Type = "ignore"
	TypeResolve Type = "resolve"
	TypeDate    Type = "date"
	TypeRange   Type = "range"
	TypeRefresh Type = "refresh"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
	// stampLayout carries the date for a block end on a later day.
	stampLayout = "2006-01-02T15:04"
)

type CreateBlockArgs struct {
	Date        time.Time
	Start       time.Time
	End         time.Time
	BlockType   model.BlockType
	Color       string
	Description string
	// TaskID, when set, is assigned to the new block once it exists.
	TaskID string
}

type AssignTaskArgs struct {
	TaskID  string
	BlockID string
}

type UpdateEstimateArgs struct {
	TaskID    string
	Pomodoros int
}

// SelectArgs addresses an item of the current plan by its 1-based position.
type SelectArgs struct {
	Index int
}

type DateArgs struct {
	Date time.Time
}

type RangeArgs struct {
	Preset string
}

type Command struct {
	Type           Type
	Raw            string
	CreateBlock    *CreateBlockArgs
	AssignTask     *AssignTaskArgs
	UpdateEstimate *UpdateEstimateArgs
	Select         *SelectArgs
	Date           *DateArgs
	Range          *RangeArgs
}

func CreateBlock(args CreateBlockArgs) Command {
	return Command{Type: TypeCreateBlock, CreateBlock: &args}
}

func AssignTask(taskID, blockID string) Command {
	return Command{Type: TypeAssignTask, AssignTask: &AssignTaskArgs{TaskID: taskID, BlockID: blockID}}
}

func UpdateEstimate(taskID string, pomodoros int) Command {
	return Command{Type: TypeUpdateEstimate, UpdateEstimate: &UpdateEstimateArgs{TaskID: taskID, Pomodoros: pomodoros}}
}

// String renders the command in the same text form Parse accepts.
func (c Command) String() string {
	switch c.Type {
	case TypeCreateBlock:
		if c.CreateBlock == nil {
			break
		}
		a := c.CreateBlock
		end := a.End.Format(clockLayout)
		if !model.SameDay(a.Start, a.End) {
			end = a.End.In(a.Start.Location()).Format(stampLayout)
		}
		out := fmt.Sprintf("block %s %s %s %s", a.Start.Format(dateLayout), a.Start.Format(clockLayout), end, a.BlockType)
		if a.TaskID != "" {
			out += " " + a.TaskID
		}
		return out
	case TypeAssignTask:
		if c.AssignTask != nil {
			return fmt.Sprintf("assign %s %s", c.AssignTask.TaskID, c.AssignTask.BlockID)
		}
	case TypeUpdateEstimate:
		if c.UpdateEstimate != nil {
			return fmt.Sprintf("estimate %s %d", c.UpdateEstimate.TaskID, c.UpdateEstimate.Pomodoros)
		}
	}
	if c.Raw != "" {
		return strings.TrimSpace(c.Raw)
	}
	return string(c.Type)
}

// Parse reads a command line in the given location. A leading slash is
// accepted so palette input and CLI arguments share one syntax.
func Parse(input string, loc *time.Location) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if loc == nil {
		loc = time.Local
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeCreateBlock:
		return parseCreateBlock(input, args, loc)
	case TypeAssignTask:
		return parseAssign(input, args)
	case TypeUpdateEstimate:
		return parseEstimate(input, args)
	case TypeAccept, TypeIgnore, TypeResolve:
		return parseSelect(input, Type(head), args)
	case TypeDate:
		return parseDate(input, args, loc)
	case TypeRange:
		return parseRange(input, args)
	case TypeRefresh:
		return Command{Type: TypeRefresh, Raw: input}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseCreateBlock(raw string, args []string, loc *time.Location) (Command, error) {
	if len(args) < 4 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "block requires date, start, end and type"}
	}
	day, err := time.ParseInLocation(dateLayout, args[0], loc)
	if err != nil {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid date %q", args[0])}
	}
	start, err := clockOn(day, args[1])
	if err != nil {
		return Command{}, err
	}
	var end time.Time
	if strings.Contains(args[2], "T") {
		end, err = time.ParseInLocation(stampLayout, args[2], loc)
		if err != nil {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid end %q", args[2])}
		}
	} else if end, err = clockOn(day, args[2]); err != nil {
		return Command{}, err
	}
	if !start.Before(end) {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "block start must be before end"}
	}
	blockType := model.BlockType(strings.ToUpper(args[3]))
	if !blockType.IsValid() {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid block type %q", args[3])}
	}
	out := CreateBlockArgs{Date: day, Start: start, End: end, BlockType: blockType, Color: blockType.Color()}
	if len(args) > 4 {
		out.TaskID = args[4]
	}
	return Command{Type: TypeCreateBlock, Raw: raw, CreateBlock: &out}, nil
}

func clockOn(day time.Time, value string) (time.Time, error) {
	clock, err := time.Parse(clockLayout, value)
	if err != nil {
		return time.Time{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid time %q", value)}
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, day.Location()), nil
}

func parseAssign(raw string, args []string) (Command, error) {
	if len(args) < 2 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "assign requires task and block"}
	}
	return Command{Type: TypeAssignTask, Raw: raw, AssignTask: &AssignTaskArgs{TaskID: args[0], BlockID: args[1]}}, nil
}

func parseEstimate(raw string, args []string) (Command, error) {
	if len(args) < 2 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "estimate requires task and pomodoro count"}
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n < 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid pomodoro count %q", args[1])}
	}
	return Command{Type: TypeUpdateEstimate, Raw: raw, UpdateEstimate: &UpdateEstimateArgs{TaskID: args[0], Pomodoros: n}}, nil
}

func parseSelect(raw string, typ Type, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s requires an item number", typ)}
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid item number %q", args[0])}
	}
	return Command{Type: typ, Raw: raw, Select: &SelectArgs{Index: n}}, nil
}

func parseDate(raw string, args []string, loc *time.Location) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "date requires YYYY-MM-DD"}
	}
	day, err := time.ParseInLocation(dateLayout, args[0], loc)
	if err != nil {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid date %q", args[0])}
	}
	return Command{Type: TypeDate, Raw: raw, Date: &DateArgs{Date: day}}, nil
}

func parseRange(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "range requires a preset"}
	}
	return Command{Type: TypeRange, Raw: raw, Range: &RangeArgs{Preset: strings.ToLower(args[0])}}, nil
}
