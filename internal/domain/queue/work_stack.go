package queue

// WorkStack хранит пути к файлам в порядке LIFO: Pop всегда возвращает
// последний добавленный оставшийся элемент.
// Стек не синхронизирован, доступ сериализует вызывающая сторона.
type WorkStack struct {
	items []string
}

// NewWorkStack создает пустой стек
func NewWorkStack() *WorkStack {
	return &WorkStack{items: make([]string, 0)}
}

// Push добавляет элемент и возвращает новую длину стека
func (s *WorkStack) Push(item string) int {
	s.items = append(s.items, item)
	return len(s.items)
}

// Pop снимает верхний элемент. false означает пустой стек.
func (s *WorkStack) Pop() (string, bool) {
	if len(s.items) == 0 {
		return "", false
	}

	last := len(s.items) - 1
	item := s.items[last]
	s.items[last] = ""
	s.items = s.items[:last]

	return item, true
}

// Peek возвращает верхний элемент, не снимая его
func (s *WorkStack) Peek() (string, bool) {
	if len(s.items) == 0 {
		return "", false
	}
	return s.items[len(s.items)-1], true
}

func (s *WorkStack) Len() int {
	return len(s.items)
}

func (s *WorkStack) IsEmpty() bool {
	return len(s.items) == 0
}

// Cancel удаляет все вхождения item, сохраняя порядок остальных элементов
func (s *WorkStack) Cancel(item string) {
	kept := s.items[:0]
	for _, existing := range s.items {
		if existing != item {
			kept = append(kept, existing)
		}
	}

	for i := len(kept); i < len(s.items); i++ {
		s.items[i] = ""
	}
	s.items = kept
}

// Items возвращает копию содержимого от дна к вершине
func (s *WorkStack) Items() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}
