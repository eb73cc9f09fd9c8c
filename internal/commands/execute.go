package commands

import "fmt"

type Result struct {
	Message string
}

// Handlers is filled by whoever owns the side effects: storage for
// mutations, the UI for selection and navigation.
type Handlers struct {
	CreateBlock    func(CreateBlockArgs) (Result, error)
	AssignTask     func(AssignTaskArgs) (Result, error)
	UpdateEstimate func(UpdateEstimateArgs) (Result, error)
	Accept         func(SelectArgs) (Result, error)
	Ignore         func(SelectArgs) (Result, error)
	Resolve        func(SelectArgs) (Result, error)
	Date           func(DateArgs) (Result, error)
	Range          func(RangeArgs) (Result, error)
	Refresh        func() (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeCreateBlock:
		if handlers.CreateBlock == nil {
			return Result{}, missing("block")
		}
		if cmd.CreateBlock == nil {
			return Result{}, malformed(cmd.Type)
		}
		return handlers.CreateBlock(*cmd.CreateBlock)
	case TypeAssignTask:
		if handlers.AssignTask == nil {
			return Result{}, missing("assign")
		}
		if cmd.AssignTask == nil {
			return Result{}, malformed(cmd.Type)
		}
		return handlers.AssignTask(*cmd.AssignTask)
	case TypeUpdateEstimate:
		if handlers.UpdateEstimate == nil {
			return Result{}, missing("estimate")
		}
		if cmd.UpdateEstimate == nil {
			return Result{}, malformed(cmd.Type)
		}
		return handlers.UpdateEstimate(*cmd.UpdateEstimate)
	case TypeAccept, TypeIgnore, TypeResolve:
		return executeSelect(cmd, handlers)
	case TypeDate:
		if handlers.Date == nil {
			return Result{}, missing("date")
		}
		if cmd.Date == nil {
			return Result{}, malformed(cmd.Type)
		}
		return handlers.Date(*cmd.Date)
	case TypeRange:
		if handlers.Range == nil {
			return Result{}, missing("range")
		}
		if cmd.Range == nil {
			return Result{}, malformed(cmd.Type)
		}
		return handlers.Range(*cmd.Range)
	case TypeRefresh:
		if handlers.Refresh == nil {
			return Result{}, missing("refresh")
		}
		return handlers.Refresh()
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}

func executeSelect(cmd Command, handlers Handlers) (Result, error) {
	if cmd.Select == nil {
		return Result{}, malformed(cmd.Type)
	}
	var fn func(SelectArgs) (Result, error)
	switch cmd.Type {
	case TypeAccept:
		fn = handlers.Accept
	case TypeIgnore:
		fn = handlers.Ignore
	case TypeResolve:
		fn = handlers.Resolve
	}
	if fn == nil {
		return Result{}, missing(string(cmd.Type))
	}
	return fn(*cmd.Select)
}

func missing(name string) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: name + " handler not configured"}
}

func malformed(t Type) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s command has no arguments", t)}
}
