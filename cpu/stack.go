package cpu

const (
	STACK_LIMIT = 100 // Default maximum call depth
)

// Return is a call stack entry. Linear execution records the return
// address, block execution records the block and the index to resume at.
type Return struct {
	Address uint16
	Block   string
	Index   int
}

// CallStack is the bounded stack of unreturned calls.
type CallStack struct {
	Limit int // Maximum depth; zero selects STACK_LIMIT.
	Data  []Return
}

func (s *CallStack) limit() int {
	if s.Limit <= 0 {
		return STACK_LIMIT
	}
	return s.Limit
}

func (s *CallStack) Push(value Return) (err error) {
	if s.Full() {
		err = ErrStackOverflow
		return
	}

	s.Data = append(s.Data, value)
	return
}

func (s *CallStack) Pop() (value Return, err error) {
	value, ok := s.Peek()
	if !ok {
		err = ErrStackUnderflow
		return
	}

	s.Data = s.Data[:len(s.Data)-1]
	return
}

func (s *CallStack) Empty() bool {
	return len(s.Data) == 0
}

func (s *CallStack) Full() bool {
	return len(s.Data) >= s.limit()
}

func (s *CallStack) Depth() int {
	return len(s.Data)
}

func (s *CallStack) Peek() (value Return, ok bool) {
	if s.Empty() {
		return
	}

	return s.Data[len(s.Data)-1], true
}

func (s *CallStack) Reset() {
	if len(s.Data) > 0 {
		s.Data = s.Data[:0]
	}
}
