package swagger

import "github.com/swaggo/swag"

// docTemplate is maintained by hand alongside the handler annotations.
const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Appeal Desk API",
        "description": "Appeal lifecycle, routing and deadline reminders for the district desks",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {
            "name": "Appeals",
            "description": "Appeal lifecycle"
        },
        {
            "name": "Answers",
            "description": "Submitter verdicts on answers"
        },
        {
            "name": "ApprovalRequests",
            "description": "Permission to file concurrent appeals"
        },
        {
            "name": "Reminders",
            "description": "Deadline scan"
        }
    ],
    "paths": {
        "/appeals": {
            "post": {
                "tags": [
                    "Appeals"
                ],
                "summary": "File a new appeal",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateAppealRequest"
                        }
                    }
                ]
            },
            "get": {
                "tags": [
                    "Appeals"
                ],
                "summary": "List appeals",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "districtId",
                        "in": "query",
                        "required": false,
                        "type": "integer",
                        "description": "Owning district"
                    },
                    {
                        "name": "submitterId",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Submitter ID"
                    },
                    {
                        "name": "status",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Comma separated statuses"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "required": false,
                        "type": "integer",
                        "description": "Page size"
                    },
                    {
                        "name": "offset",
                        "in": "query",
                        "required": false,
                        "type": "integer",
                        "description": "Offset"
                    }
                ]
            }
        },
        "/appeals/{id}": {
            "get": {
                "tags": [
                    "Appeals"
                ],
                "summary": "Get an appeal with its latest answer",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Appeal ID"
                    }
                ]
            }
        },
        "/appeals/{id}/logs": {
            "get": {
                "tags": [
                    "Appeals"
                ],
                "summary": "Appeal audit trail",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Appeal ID"
                    }
                ]
            }
        },
        "/appeals/{id}/forward": {
            "post": {
                "tags": [
                    "Appeals"
                ],
                "summary": "Forward an appeal to another district",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Appeal ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ForwardAppealRequest"
                        }
                    }
                ]
            }
        },
        "/appeals/{id}/extend": {
            "post": {
                "tags": [
                    "Appeals"
                ],
                "summary": "Extend an appeal's due date",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Appeal ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ExtendAppealRequest"
                        }
                    }
                ]
            }
        },
        "/appeals/{id}/close": {
            "post": {
                "tags": [
                    "Appeals"
                ],
                "summary": "Close an appeal with an answer",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Appeal ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CloseAppealRequest"
                        }
                    }
                ]
            }
        },
        "/answers/{id}/approve": {
            "post": {
                "tags": [
                    "Answers"
                ],
                "summary": "Accept an answer",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Answer ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/AnswerDecisionRequest"
                        }
                    }
                ]
            }
        },
        "/answers/{id}/reject": {
            "post": {
                "tags": [
                    "Answers"
                ],
                "summary": "Reject an answer and reopen the appeal",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Answer ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/AnswerDecisionRequest"
                        }
                    }
                ]
            }
        },
        "/approval-requests": {
            "post": {
                "tags": [
                    "ApprovalRequests"
                ],
                "summary": "Ask permission to file another appeal",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/RequestApprovalRequest"
                        }
                    }
                ]
            },
            "get": {
                "tags": [
                    "ApprovalRequests"
                ],
                "summary": "Pending approval requests for a district",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "districtId",
                        "in": "query",
                        "required": true,
                        "type": "integer",
                        "description": "District ID"
                    }
                ]
            }
        },
        "/approval-requests/{id}/approve": {
            "post": {
                "tags": [
                    "ApprovalRequests"
                ],
                "summary": "Approve a pending request",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Request ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ResolveApprovalRequest"
                        }
                    }
                ]
            }
        },
        "/approval-requests/{id}/reject": {
            "post": {
                "tags": [
                    "ApprovalRequests"
                ],
                "summary": "Reject a pending request",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Request ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ResolveApprovalRequest"
                        }
                    }
                ]
            }
        },
        "/reminders/scan": {
            "post": {
                "tags": [
                    "Reminders"
                ],
                "summary": "Run the deadline scan now",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "Attachment": {
            "type": "object",
            "required": [
                "externalRef",
                "kind"
            ],
            "properties": {
                "externalRef": {
                    "type": "string"
                },
                "kind": {
                    "type": "string",
                    "enum": [
                        "photo",
                        "video",
                        "audio",
                        "voice",
                        "document"
                    ]
                },
                "name": {
                    "type": "string"
                },
                "size": {
                    "type": "integer"
                },
                "mimeType": {
                    "type": "string"
                }
            }
        },
        "CreateAppealRequest": {
            "type": "object",
            "properties": {
                "submitterId": {
                    "type": "string"
                },
                "channelId": {
                    "type": "integer"
                },
                "text": {
                    "type": "string"
                },
                "files": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/Attachment"
                    }
                },
                "appealNumber": {
                    "type": "string",
                    "description": "Government submitters only"
                }
            }
        },
        "ForwardAppealRequest": {
            "type": "object",
            "required": [
                "districtId",
                "moderatorId"
            ],
            "properties": {
                "districtId": {
                    "type": "integer"
                },
                "moderatorId": {
                    "type": "string"
                },
                "comment": {
                    "type": "string"
                }
            }
        },
        "ExtendAppealRequest": {
            "type": "object",
            "required": [
                "dueDate",
                "moderatorId"
            ],
            "properties": {
                "dueDate": {
                    "type": "string",
                    "description": "YYYY-MM-DD or DD.MM.YYYY"
                },
                "moderatorId": {
                    "type": "string"
                },
                "comment": {
                    "type": "string"
                }
            }
        },
        "CloseAppealRequest": {
            "type": "object",
            "required": [
                "moderatorId"
            ],
            "properties": {
                "moderatorId": {
                    "type": "string"
                },
                "text": {
                    "type": "string"
                },
                "files": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/Attachment"
                    }
                }
            }
        },
        "AnswerDecisionRequest": {
            "type": "object",
            "required": [
                "submitterId"
            ],
            "properties": {
                "submitterId": {
                    "type": "string"
                },
                "reason": {
                    "type": "string"
                }
            }
        },
        "RequestApprovalRequest": {
            "type": "object",
            "properties": {
                "submitterId": {
                    "type": "string"
                },
                "channelId": {
                    "type": "integer"
                }
            }
        },
        "ResolveApprovalRequest": {
            "type": "object",
            "required": [
                "moderatorId"
            ],
            "properties": {
                "moderatorId": {
                    "type": "string"
                },
                "reason": {
                    "type": "string"
                }
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "limit": {
                    "type": "integer"
                },
                "offset": {
                    "type": "integer"
                },
                "count": {
                    "type": "integer"
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "pagination": {
                    "$ref": "#/definitions/Pagination"
                },
                "meta": {
                    "type": "object"
                }
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
