package assess

// Score grades submitted answers against the quiz's questions. Each answer whose
// selected option equals the question's correct option earns that question's
// marks. Answers referencing unknown question IDs and unanswered questions
// contribute zero. Marks are integers; no floating point is involved.
func Score(questions []Question, answers []Answer) int {
	byID := make(map[string]Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	score := 0
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if ok && q.CorrectAnswer == a.SelectedAnswer {
			score += q.Marks
		}
	}
	return score
}
