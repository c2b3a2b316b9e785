package zstack_test

import (
	"testing"

	"github.com/davetcode/goz/zstack"
)

func TestFramePushPopEvalStack(t *testing.T) {
	f := &zstack.Frame{}
	f.Push(5)
	f.Push(9)
	v, err := f.Pop()
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if v != 9 {
		t.Fatalf("expected 9, got %d", v)
	}
	v, _ = f.Pop()
	if v != 5 {
		t.Fatalf("expected 5, got %d", v)
	}
	if _, err := f.Pop(); err == nil {
		t.Fatal("expected error popping empty eval stack")
	}
}

func TestFrameLocals(t *testing.T) {
	f := &zstack.Frame{Locals: make([]uint16, 3)}
	if err := f.SetLocal(2, 42); err != nil {
		t.Fatalf("SetLocal: %v", err)
	}
	v, err := f.Local(2)
	if err != nil {
		t.Fatalf("Local: %v", err)
	}
	if v != 42 {
		t.Fatalf("expected 42, got %d", v)
	}
	if _, err := f.Local(4); err == nil {
		t.Fatal("expected out-of-range local to error")
	}
}

func TestCallStackPushPop(t *testing.T) {
	var s zstack.CallStack
	s.Push(zstack.Frame{ReturnPC: 0x100})
	s.Push(zstack.Frame{ReturnPC: 0x200})

	if s.Depth() != 2 {
		t.Fatalf("expected depth 2, got %d", s.Depth())
	}

	f, err := s.Pop()
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if f.ReturnPC != 0x200 {
		t.Fatalf("expected ReturnPC 0x200, got %#x", f.ReturnPC)
	}

	if _, err := s.Pop(); err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if _, err := s.Pop(); err == nil {
		t.Fatal("expected error popping empty call stack")
	}
}

func TestThrowUnwindsToCatchFrame(t *testing.T) {
	var s zstack.CallStack
	s.Push(zstack.Frame{ReturnPC: 1})
	s.Push(zstack.Frame{ReturnPC: 2})
	s.Push(zstack.Frame{ReturnPC: 3})

	if err := s.Throw(1); err != nil {
		t.Fatalf("Throw: %v", err)
	}
	if s.Depth() != 1 {
		t.Fatalf("expected depth 1 after throw, got %d", s.Depth())
	}
}

func TestCloneIsIndependent(t *testing.T) {
	var s zstack.CallStack
	s.Push(zstack.Frame{Locals: []uint16{1, 2, 3}})

	clone := s.Clone()
	top, _ := s.Top()
	top.Locals[0] = 99

	cloneTop, _ := clone.FrameAt(0)
	if cloneTop.Locals[0] != 1 {
		t.Fatalf("expected clone to be unaffected by mutation, got %d", cloneTop.Locals[0])
	}
}
