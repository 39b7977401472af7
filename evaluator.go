package triviagen

// EvaluateAnswer reports whether the submitted answer is the correct one.
// The comparison is exact: clients echo back the option string they were given.
func EvaluateAnswer(submitted, correct string) bool {
	return submitted == correct
}
