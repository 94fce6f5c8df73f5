package openai

import "docvault-backend/internal/extraction"

const (
	systemPrompt = "You are an AI assistant specialized in document information extraction. Extract key information from documents into structured data format."

	summarySystemPrompt = "Provide a brief summary of the document in 1-2 sentences."
)

var promptByType = map[extraction.DocumentType]string{
	extraction.TypeInvoice:  "Extract all key details from this invoice including invoice number, date, total amount, vendor information, line items, and payment terms. Format as JSON.",
	extraction.TypeReceipt:  "Extract all key details from this receipt including date, merchant name, items purchased, prices, totals, payment method, and taxes. Format as JSON.",
	extraction.TypeContract: "Extract key contract information including parties involved, effective date, termination date, key clauses, and obligations. Format as JSON.",
	extraction.TypeForm:     "Extract all form fields and values from this document. Format as JSON.",
	extraction.TypeID:       "Extract identification information such as name, date of birth, ID number, address, and expiry date if applicable. Format as JSON.",
	extraction.TypeOther:    "Extract all key information, entities, and important content from this document. Format as JSON.",
}

func instructionFor(docType extraction.DocumentType) string {
	if prompt, ok := promptByType[docType]; ok {
		return prompt
	}
	return promptByType[extraction.TypeOther]
}
