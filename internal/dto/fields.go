package dto

// put stores *v under key when v is set. Omitted fields stay absent so partial
// updates only touch what the client sent.
func put[T any](fields map[string]interface{}, key string, v *T) {
	if v != nil {
		fields[key] = *v
	}
}
